package protocol

// CommDir is the shared coordination directory, relative to the workspace
// root. All agents are configured with the same workspace root at startup,
// so no discovery protocol is needed.
const CommDir = ".quorum"

// Record collection file names inside CommDir.
const (
	TasksFile    = "tasks.json"
	MessagesFile = "messages.json"
	AgentsFile   = "agents.json"
)

// AuditDBFile is the SQLite audit log inside CommDir.
const AuditDBFile = "audit.db"

// ManifestFile is the TOML workspace manifest inside CommDir.
const ManifestFile = "quorum.toml"

// RulesFile is the optional YAML delegation-rule override inside CommDir.
const RulesFile = "rules.yaml"
