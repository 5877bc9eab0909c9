package export

// Event is one resolved cut in the list. Times are milliseconds; source
// times index into the media file, record times into the sequence.
type Event struct {
	ClipName    string
	MediaPath   string
	SourceInMs  int
	SourceOutMs int
	RecordInMs  int
	RecordOutMs int
}

type Request struct {
	Title     string  `json:"title"`
	Format    string  `json:"format"`
	FrameRate float64 `json:"frameRate"`
	OutputDir string  `json:"outputDir"`
}

type Response struct {
	Status          string   `json:"status"`
	Format          string   `json:"format"`
	OutputPath      string   `json:"outputPath"`
	EventCount      int      `json:"eventCount"`
	UnresolvedClips []string `json:"unresolvedClips"`
}
