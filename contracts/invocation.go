package contracts

import "fmt"

// Option names recognized by an InvocationContext. Each holds a file path the
// tap process receives as a --<name> <path> flag.
const (
	OptionConfig     = "config"
	OptionCatalog    = "catalog"
	OptionState      = "state"
	OptionProperties = "properties"
)

// InvocationContext carries the file-path options a tap is invoked with.
// Config is required for both discovery and sync; catalog, state, and
// properties apply to sync only. An empty path means the option is unset.
type InvocationContext struct {
	configPath     string
	catalogPath    string
	statePath      string
	propertiesPath string
}

// NewInvocationContext creates a context with the required config path set.
func NewInvocationContext(configPath string) *InvocationContext {
	return &InvocationContext{configPath: configPath}
}

func (c *InvocationContext) slot(name string) (*string, error) {
	switch name {
	case OptionConfig:
		return &c.configPath, nil
	case OptionCatalog:
		return &c.catalogPath, nil
	case OptionState:
		return &c.statePath, nil
	case OptionProperties:
		return &c.propertiesPath, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidOption, name)
	}
}

// Option returns the path stored under name. Unknown names fail with
// ErrInvalidOption; recognized-but-unset names fail with ErrOptionNotSet.
func (c *InvocationContext) Option(name string) (string, error) {
	slot, err := c.slot(name)
	if err != nil {
		return "", err
	}
	if *slot == "" {
		return "", fmt.Errorf("%w: %s", ErrOptionNotSet, name)
	}
	return *slot, nil
}

// SetOption stores a path under name, failing with ErrInvalidOption for
// unrecognized names.
func (c *InvocationContext) SetOption(name, value string) error {
	slot, err := c.slot(name)
	if err != nil {
		return err
	}
	*slot = value
	return nil
}

// ConfigPath returns the required config path.
func (c *InvocationContext) ConfigPath() (string, error) {
	return c.Option(OptionConfig)
}

// CatalogPath returns the optional catalog path.
func (c *InvocationContext) CatalogPath() (string, error) {
	return c.Option(OptionCatalog)
}

// StatePath returns the optional state path.
func (c *InvocationContext) StatePath() (string, error) {
	return c.Option(OptionState)
}

// PropertiesPath returns the optional properties path.
func (c *InvocationContext) PropertiesPath() (string, error) {
	return c.Option(OptionProperties)
}

// SetConfigPath sets the config path.
func (c *InvocationContext) SetConfigPath(path string) { c.configPath = path }

// SetCatalogPath sets the catalog path.
func (c *InvocationContext) SetCatalogPath(path string) { c.catalogPath = path }

// SetStatePath sets the state path.
func (c *InvocationContext) SetStatePath(path string) { c.statePath = path }

// SetPropertiesPath sets the properties path.
func (c *InvocationContext) SetPropertiesPath(path string) { c.propertiesPath = path }
