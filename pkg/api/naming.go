package api

// BindRequest binds (or rebinds/unbinds) a logical path to a server URI in
// the naming service.
type BindRequest struct {
	Path string `json:"path"`
	URI  string `json:"uri"`
}

// LookupResponse resolves a logical path to the URI currently bound to it.
type LookupResponse struct {
	Path string `json:"path"`
	URI  string `json:"uri"`
}
