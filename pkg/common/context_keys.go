package common

type contextKey string

func (c contextKey) String() string {
	return string(c)
}

const (
	ClientIPKey contextKey = "client_ip"
	VerdictKey  contextKey = "verdict"
)
