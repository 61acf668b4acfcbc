package config

const (
	// MaxNodeNameLength is the maximum length for folder and document names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxNodeNameLength = 255

	// MaxCommentLength caps comment and reply text.
	MaxCommentLength = 5000

	// MaxTagsPerNode caps the tags a single node may carry.
	MaxTagsPerNode = 32

	// MaxTagLength is the maximum length of one tag.
	MaxTagLength = 64

	// MaxBatchSize bounds the ids accepted by one delete, restore or purge call.
	MaxBatchSize = 500
)
