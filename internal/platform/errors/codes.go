package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Timeline errors
	CodeTimelineIDRequired  Code = "TIMELINE_ID_REQUIRED"
	CodeBranchNotFound      Code = "BRANCH_NOT_FOUND"
	CodeBranchNameEmpty     Code = "BRANCH_NAME_EMPTY"
	CodeBranchIDRequired    Code = "BRANCH_ID_REQUIRED"
	CodeReducerRequired     Code = "REDUCER_REQUIRED"
	CodeEventMissingPayload Code = "EVENT_MISSING_PAYLOAD"

	// Scene errors
	CodeSceneIDRequired Code = "SCENE_ID_REQUIRED"
	CodeItemIDRequired  Code = "ITEM_ID_REQUIRED"

	// Merge errors
	CodeMergeInvalidResolution Code = "MERGE_INVALID_RESOLUTION"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)
