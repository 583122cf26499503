package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrMalformedFrame = errors.New("malformed frame")

// Kind enumerates the requests a client may send.
type Kind int

const (
	KindUnknown Kind = iota
	KindLogin
	KindRegister
	KindRoomList
	KindCreate
	KindJoin
	KindPlace
	KindForfeit
)

var kinds = map[string]Kind{
	ActionLogin:    KindLogin,
	ActionRegister: KindRegister,
	ActionRoomList: KindRoomList,
	ActionCreate:   KindCreate,
	ActionJoin:     KindJoin,
	ActionPlace:    KindPlace,
	ActionForfeit:  KindForfeit,
}

func (that Kind) String() string {
	for name, kind := range kinds {
		if kind == that {
			return name
		}
	}

	return "UNKNOWN"
}

// Command is a decoded request frame.
type Command struct {
	Kind Kind
	Name string
	Args []string
}

// ParseCommand - splits a frame into its action name and arguments.
func ParseCommand(frame string) Command {
	tokens := strings.Split(strings.TrimSpace(frame), separator)

	return Command{
		Kind: kinds[tokens[0]],
		Name: tokens[0],
		Args: tokens[1:],
	}
}

// Credentials - returns the username and password of LOGIN/REGISTER.
func (that Command) Credentials() (string, string, bool) {
	if len(that.Args) != 2 || that.Args[0] == "" || that.Args[1] == "" {
		return "", "", false
	}

	return that.Args[0], that.Args[1], true
}

// Cell - returns the column and row of a PLACE command.
func (that Command) Cell() (int, int, error) {
	if len(that.Args) != 2 {
		return 0, 0, fmt.Errorf("%w: %s expects 2 arguments, got %d", ErrMalformedFrame, that.Name, len(that.Args))
	}

	col, err := strconv.Atoi(that.Args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: column %q", ErrMalformedFrame, that.Args[0])
	}

	row, err := strconv.Atoi(that.Args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: row %q", ErrMalformedFrame, that.Args[1])
	}

	return col, row, nil
}

// Encode - renders a request frame; used by clients.
func Encode(name string, args ...string) string {
	return strings.Join(append([]string{name}, args...), separator)
}
