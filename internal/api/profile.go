package api

// JobProfile is the submission payload: source container, enhancement
// filter chain, and output encoding parameters. The profile is static per
// batch; it is not derived from the individual source file.
type JobProfile struct {
	Source  SourceSpec   `json:"source"`
	Filters []FilterSpec `json:"filters"`
	Output  OutputSpec   `json:"output"`
}

// SourceSpec describes the uploaded container format.
type SourceSpec struct {
	Container string `json:"container"`
}

// FilterSpec selects one enhancement model.
type FilterSpec struct {
	Model string `json:"model"`
}

// OutputSpec holds the requested output encoding parameters.
type OutputSpec struct {
	FrameRate               int        `json:"frameRate"`
	AudioTransfer           string     `json:"audioTransfer"`
	AudioCodec              string     `json:"audioCodec"`
	VideoEncoder            string     `json:"videoEncoder"`
	VideoProfile            string     `json:"videoProfile"`
	DynamicCompressionLevel string     `json:"dynamicCompressionLevel"`
	Resolution              Resolution `json:"resolution"`
}

// Resolution is the output frame size in pixels.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DefaultProfile returns the fixed enhancement profile: MP4 in, prob-4
// model, H265 Main at 1920x1078/24fps with AAC audio copied over.
func DefaultProfile() JobProfile {
	return JobProfile{
		Source: SourceSpec{Container: "mp4"},
		Filters: []FilterSpec{
			{Model: "prob-4"},
		},
		Output: OutputSpec{
			FrameRate:               24,
			AudioTransfer:           "Copy",
			AudioCodec:              "AAC",
			VideoEncoder:            "H265",
			VideoProfile:            "Main",
			DynamicCompressionLevel: "Mid",
			Resolution:              Resolution{Width: 1920, Height: 1078},
		},
	}
}
