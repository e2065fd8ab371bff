package format

// StreamDescriptor is one raw candidate encoding/quality variant as reported
// by the extraction gateway. Most fields are optional and unreliable: Height
// may be zero even for video streams, sizes may be absent or approximate, and
// the format note is free text.
type StreamDescriptor struct {
	ID             string
	Ext            string
	Height         int
	FormatNote     string
	Filesize       int64
	FilesizeApprox int64
	Codec          string
	FPS            int
}

// Option is a normalized, user-choosable quality variant derived from one
// raw stream descriptor.
type Option struct {
	FormatID        string `json:"format_id"`
	Ext             string `json:"ext"`
	Quality         string `json:"quality"`
	Filesize        int64  `json:"filesize"`
	FilesizeDisplay string `json:"filesize_display"`
	Codec           string `json:"vcodec"`
	FPS             string `json:"fps"`

	height int
}

// Height returns the resolved pixel height the option was ranked by.
// It is strictly positive for every option Normalize emits.
func (o Option) Height() int {
	return o.height
}
