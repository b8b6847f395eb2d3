package constants

// RunStatus is the canonical status for a monitoring check run.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusRunning RunStatus = "RUNNING" // in progress
	RunStatusOK      RunStatus = "OK"      // completed, possibly with per-entry failures
	RunStatusFailed  RunStatus = "FAILED"  // the run itself aborted (scrape error etc.)
)

// Extraction method labels recorded on each document.
const (
	MethodPDFText   = "pdf-text"   // pdftotext layout extraction
	MethodPDFStream = "pdf-stream" // pure-Go content-stream extraction
	MethodPDFOCR    = "pdf-ocr"    // rasterize + tesseract
)
