package proxy

type commandKind uint8

const (
	cmdOpen commandKind = iota + 1
	cmdClose
	cmdSendText
	cmdSendBinary
)

// command is a single caller-to-worker instruction. Only the fields relevant
// to kind are populated.
type command struct {
	kind   commandKind
	url    string
	code   int
	reason string
	text   string
	data   []byte
}
