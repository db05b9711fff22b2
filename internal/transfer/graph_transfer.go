package transfer

// Publish outcome codes reported by the Graph publishers.
const (
	FBConfigMissing   = "fb_config_missing"
	FBError           = "fb_error"
	IGConfigMissing   = "ig_config_missing"
	IGCreateError     = "ig_create_error"
	IGMediaErrorParse = "ig_media_error_parse"
	IGNoCreationID    = "ig_no_creation_id"
	IGStatusError     = "ig_status_error"
	IGMediaError      = "ig_media_error"
	IGNotReady        = "ig_not_ready"
	IGPublishError    = "ig_publish_error"
)

// Instagram media container status_code values.
const (
	ContainerFinished = "FINISHED"
	ContainerError    = "ERROR"
	ContainerUnknown  = "UNKNOWN"
)

// PublishResult is the outcome of one platform attempt. Protocol failures are
// reported here; only unexpected failures are returned as errors.
type PublishResult struct {
	OK         bool   `json:"ok"`
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
	Detail     any    `json:"detail,omitempty"`
	CreationID string `json:"creationId,omitempty"`
	StatusCode string `json:"statusCode,omitempty"`
}

func Failed(code string, detail any) PublishResult {
	return PublishResult{OK: false, Error: code, Detail: detail}
}

type InstagramContainerStatus struct {
	ID         string `json:"id"`
	StatusCode string `json:"status_code"`
}
