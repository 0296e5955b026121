package mqtt

// Topics derives every topic from a common prefix.
type Topics struct {
	prefix string
}

func NewTopics(prefix string) Topics { return Topics{prefix: prefix} }

func (t Topics) World() string   { return t.prefix + "/world" }
func (t Topics) Notices() string { return t.prefix + "/notices" }
func (t Topics) Runs() string    { return t.prefix + "/runs" }
func (t Topics) Control() string { return t.prefix + "/control" }

// Position is the topic carrying the animated position of robotID.
func (t Topics) Position(robotID string) string {
	return t.prefix + "/robots/" + robotID + "/position"
}
