package core

// Key identifies a keyboard key. Values are independent of any windowing
// backend; the UI layer translates its own codes before calling the editor.
type Key int

const (
	KeyUnknown Key = iota
	KeyA
	KeyD
	KeyE
	KeyG
	KeyL
	KeyQ
	KeyR
	KeyT
	KeyW
	KeyX
	KeyY
	KeyZ
	KeyEscape
	KeyDelete
	KeyBackspace
	KeyTab
	KeyEnter
)

var keyNames = map[Key]string{
	KeyA:         "A",
	KeyD:         "D",
	KeyE:         "E",
	KeyG:         "G",
	KeyL:         "L",
	KeyQ:         "Q",
	KeyR:         "R",
	KeyT:         "T",
	KeyW:         "W",
	KeyX:         "X",
	KeyY:         "Y",
	KeyZ:         "Z",
	KeyEscape:    "Escape",
	KeyDelete:    "Delete",
	KeyBackspace: "Backspace",
	KeyTab:       "Tab",
	KeyEnter:     "Enter",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "Unknown"
}
