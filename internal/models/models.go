package models

// Product represents a single catalog entry. Price is currency-agnostic text
// and is never parsed numerically.
type Product struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
	Image    string `json:"image"`
}

// MirrorState reports what happened to the remote copy of a local write.
type MirrorState string

const (
	MirrorOK       MirrorState = "ok"
	MirrorDisabled MirrorState = "disabled"
	MirrorFailed   MirrorState = "failed"
)

// MirrorStatus accompanies every successful local mutation. A failed mirror
// never undoes the local write; callers use this to tell "saved locally but
// not mirrored" apart from plain success.
type MirrorStatus struct {
	State  MirrorState `json:"state"`
	Detail string      `json:"detail,omitempty"`
	Commit string      `json:"commit,omitempty"`
}

// AssetRef is the result of ingesting an attachment.
//
// LocalPath is always set. RemoteURL is set only when the asset was mirrored.
// DisplayURL is the richest resolvable reference: the remote URL if mirrored,
// else the transient source URL the caller supplied, else the local path.
type AssetRef struct {
	LocalPath  string `json:"local_path"`
	RemoteURL  string `json:"remote_url,omitempty"`
	DisplayURL string `json:"display_url"`
}
