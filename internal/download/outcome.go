package download

// Status classifies the result of one document fetch. Expected absence of
// data (no attachment, no filename, already on disk) is a status, not an
// error; transport and parse failures carry the underlying error alongside.
type Status int

const (
	// Downloaded means the file was fetched and written.
	Downloaded Status = iota
	// AlreadyExists means a file of the resolved name was already present;
	// nothing was written.
	AlreadyExists
	// NoAttachment means the travel sheet had no associated document.
	NoAttachment
	// SkippedNoFilename means the docstore response carried no usable
	// filename; the download was skipped without error.
	SkippedNoFilename
	// TransportError means a request failed or came back non-2xx.
	TransportError
	// ParseError means a response body could not be decoded.
	ParseError
)

// String returns the status name for logs and summaries.
func (s Status) String() string {
	switch s {
	case Downloaded:
		return "downloaded"
	case AlreadyExists:
		return "already-exists"
	case NoAttachment:
		return "no-attachment"
	case SkippedNoFilename:
		return "no-filename"
	case TransportError:
		return "transport-error"
	case ParseError:
		return "parse-error"
	default:
		return "unknown"
	}
}

// Outcome is the per-item result the fan-out collects for every special
// project.
type Outcome struct {
	Status      Status
	ProjectUUID string
	Filename    string // set for Downloaded and AlreadyExists
	Err         error  // set for TransportError and ParseError
}
