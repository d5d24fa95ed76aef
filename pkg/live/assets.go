package live

import (
	_ "embed"
	"net/http"
)

//go:embed client.js
var clientJS []byte

// ClientScript returns the browser half of the live protocol
func ClientScript() []byte {
	return clientJS
}

// ServeClient serves the browser client script
func ServeClient(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(clientJS)
}
