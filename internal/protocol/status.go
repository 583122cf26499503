package protocol

// Request and response names.
const (
	ActionLogin       = "LOGIN"
	ActionRegister    = "REGISTER"
	ActionRoomList    = "ROOMLIST"
	ActionCreate      = "CREATE"
	ActionJoin        = "JOIN"
	ActionPlace       = "PLACE"
	ActionForfeit     = "FORFEIT"
	ActionBegin       = "BEGIN"
	ActionInProgress  = "INPROGRESS"
	ActionBoardStatus = "BOARDSTATUS"
	ActionGameEnd     = "GAMEEND"
	ActionBadAuth     = "BADAUTH"
	ActionNoRoom      = "NOROOM"

	ackToken  = "ACKSTATUS"
	separator = ":"
	listSep   = ","
)

// Status is the numeric code carried by ACKSTATUS and GAMEEND frames.
// Codes are scoped by action, so the same number means different things
// for different actions.
type Status int

const StatusSuccess Status = 0

const (
	LoginUserNotFound Status = iota + 1
	LoginPasswordMismatch
	LoginInvalidFormat
	LoginAlreadyActive
)

const (
	RegisterUserExists Status = iota + 1
	RegisterInvalidFormat
)

const (
	RoomListInvalidInput Status = 1
)

const (
	CreateInvalidName Status = iota + 1
	CreateRoomExists
	CreateMaxRooms
	CreateInvalidFormat
	CreateAlreadyInRoom
)

const (
	JoinRoomNotFound Status = iota + 1
	JoinRoomFull
	JoinInvalidFormat
	JoinAlreadyInRoom
)

const (
	GameEndWinner Status = iota
	GameEndDraw
	GameEndForfeit
)

// Mode selects how a client takes part in a room.
type Mode string

const (
	ModePlayer Mode = "PLAYER"
	ModeViewer Mode = "VIEWER"
)

func ParseMode(value string) (Mode, bool) {
	switch Mode(value) {
	case ModePlayer, ModeViewer:
		return Mode(value), true
	default:
		return "", false
	}
}
