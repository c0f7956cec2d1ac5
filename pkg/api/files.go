package api

// UploadRequest stores a new ciphertext version of a file. Owner is the
// username of the file's owner, which differs from the caller when a
// collaborator uploads an edit.
type UploadRequest struct {
	Name       string `json:"name"`
	Ciphertext []byte `json:"ciphertext"`
	Signature  []byte `json:"signature"`
	Owner      string `json:"owner"`
}

// UploadResponse reports the version the upload was stored as.
type UploadResponse struct {
	Version int `json:"version"`
}

// DownloadResponse returns the stored ciphertext exactly as uploaded together
// with the metadata the client needs to verify and decrypt it. Certificate is
// the last modifier's, because the signature covers their ciphertext.
type DownloadResponse struct {
	Name         string `json:"name"`
	Ciphertext   []byte `json:"ciphertext"`
	Signature    []byte `json:"signature"`
	Certificate  []byte `json:"certificate"`
	LastModifier string `json:"last_modifier"`
	Owner        string `json:"owner"`
	Version      int    `json:"version"`
}

// CertificateResponse returns a registered identity's public certificate.
type CertificateResponse struct {
	Username    string `json:"username"`
	Certificate []byte `json:"certificate"`
}

// RemoveRequest revokes a collaborator's access to a file.
type RemoveRequest struct {
	Username string `json:"username"`
	FileName string `json:"file_name"`
}

// RemoveResponse lists the collaborators that remain entitled after the
// removal, with their certificates, so the owner can re-key the file and
// re-invite each of them.
type RemoveResponse struct {
	Collaborators []CertificateResponse `json:"collaborators"`
}
