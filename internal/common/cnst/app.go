package cnst

const (
	AppName     = "cryptogrammer"
	CommandName = "cryptogrammer"
)
