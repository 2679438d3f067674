package model

// Blob is an in-memory binary payload with an optional MIME type.
// Data marshals to base64 in JSON.
type Blob struct {
	Data []byte `json:"data"`
	Type string `json:"type,omitempty"`
}

// Size returns the byte length of the blob.
func (b *Blob) Size() int {
	if b == nil {
		return 0
	}
	return len(b.Data)
}

// HttpUploadFileOptions uploads Blob as the multipart field Name.
type HttpUploadFileOptions struct {
	HttpOptions

	Name string `json:"name"`
	Blob *Blob  `json:"blob,omitempty"`

	// FilePath is used by native platforms only and ignored here.
	FilePath string `json:"filePath,omitempty"`
}

// HttpDownloadFileOptions are plain request options.
type HttpDownloadFileOptions struct {
	HttpOptions

	// FilePath is used by native platforms only and ignored here.
	FilePath string `json:"filePath,omitempty"`
}

// HttpDownloadFileResult holds the fully buffered body.
type HttpDownloadFileResult struct {
	Blob *Blob `json:"blob"`
}
