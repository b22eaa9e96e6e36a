package config

import "time"

// FileName is the name of the config file inside the oridll directory.
const FileName = "oridll.lua"

// Lua schema field names and globals
const (
	luaGlobalOridll  = "oridll"
	luaFieldGameDir  = "game_dir"
	luaFieldData     = "data_folder"
	luaFieldAssembly = "assembly"
	luaFieldGameExe  = "game_exe"
	luaFieldWorkers  = "scan_workers"
	luaFieldKeyring  = "keyring"
)

// Limits
const (
	MaxConfigSize       = 1 << 20
	MinScanWorkers      = 1
	MaxScanWorkers      = 64
	DefaultParseTimeout = 5 * time.Second
)
