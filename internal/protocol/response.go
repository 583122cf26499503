package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnknownResponse = errors.New("unknown response")

// Ack - renders ACTION:ACKSTATUS:<code>[:extra].
func Ack(action string, status Status, extra ...string) string {
	tokens := append([]string{action, ackToken, strconv.Itoa(int(status))}, extra...)

	return strings.Join(tokens, separator)
}

func RoomList(rooms []string) string {
	return Ack(ActionRoomList, StatusSuccess, strings.Join(rooms, listSep))
}

func Begin(first, second string) string {
	return strings.Join([]string{ActionBegin, first, second}, separator)
}

func InProgress(current, other string) string {
	return strings.Join([]string{ActionInProgress, current, other}, separator)
}

func BoardStatus(board string) string {
	return ActionBoardStatus + separator + board
}

// GameEnd - renders GAMEEND:<board>:<status>[:winner].
func GameEnd(board string, status Status, winner string) string {
	frame := strings.Join([]string{ActionGameEnd, board, strconv.Itoa(int(status))}, separator)
	if winner != "" {
		frame += separator + winner
	}

	return frame
}

func BadAuth() string {
	return ActionBadAuth
}

func NoRoom() string {
	return ActionNoRoom
}

// Response is a decoded server frame.
type Response struct {
	Name   string
	Status Status
	// Extra holds the optional trailing token of an ACKSTATUS frame.
	Extra   string
	Board   string
	Players [2]string
	Winner  string
}

// Rooms - splits the ROOMLIST payload.
func (that Response) Rooms() []string {
	if that.Extra == "" {
		return nil
	}

	return strings.Split(that.Extra, listSep)
}

// ParseResponse - decodes a server frame. Anything that does not match a
// known shape is ErrUnknownResponse, which clients treat as fatal.
func ParseResponse(frame string) (Response, error) {
	tokens := strings.Split(strings.TrimSpace(frame), separator)
	response := Response{Name: tokens[0]}
	args := tokens[1:]

	switch response.Name {
	case ActionBadAuth, ActionNoRoom:
		if len(args) != 0 {
			return Response{}, unknown(frame)
		}
	case ActionBegin, ActionInProgress:
		if len(args) != 2 {
			return Response{}, unknown(frame)
		}
		response.Players = [2]string{args[0], args[1]}
	case ActionBoardStatus:
		if len(args) != 1 {
			return Response{}, unknown(frame)
		}
		response.Board = args[0]
	case ActionGameEnd:
		if len(args) != 2 && len(args) != 3 {
			return Response{}, unknown(frame)
		}
		status, err := strconv.Atoi(args[1])
		if err != nil {
			return Response{}, unknown(frame)
		}
		response.Board = args[0]
		response.Status = Status(status)
		if len(args) == 3 {
			response.Winner = args[2]
		}
	case ActionLogin, ActionRegister, ActionRoomList, ActionCreate, ActionJoin:
		if len(args) < 2 || len(args) > 3 || args[0] != ackToken {
			return Response{}, unknown(frame)
		}
		status, err := strconv.Atoi(args[1])
		if err != nil {
			return Response{}, unknown(frame)
		}
		response.Status = Status(status)
		if len(args) == 3 {
			response.Extra = args[2]
		}
	default:
		return Response{}, unknown(frame)
	}

	return response, nil
}

func unknown(frame string) error {
	return fmt.Errorf("%w: %q", ErrUnknownResponse, frame)
}
