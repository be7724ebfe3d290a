package config

// defaultConfig is the configuration hookgen runs with when neither a
// hookgen.yaml, the environment nor flags say otherwise.
var defaultConfig = `
debug: false
force: false
header: hookgen
trampolinePrefix: hooktrace_call_
runtimeImport: github.com/sghaida/hooktrace/hook
outSuffix: _hooks.gen
`

// GetDefaultConfig returns the default configuration document.
func GetDefaultConfig() string {
	return defaultConfig
}
