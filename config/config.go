package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
	"github.com/perpx/explorer/blockdownloader"
	"github.com/perpx/explorer/common"
	"github.com/perpx/explorer/db"
	"github.com/perpx/explorer/kvstore"
	"github.com/perpx/explorer/log"
	"github.com/perpx/explorer/metrics"
	"github.com/perpx/explorer/statesync"
	"github.com/perpx/explorer/sync"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

const (
	// FlagCfg is the flag for cfg.
	FlagCfg = "cfg"
	// FlagComponents is the flag for components.
	FlagComponents = "components"
	// FlagNetwork selects one of the built in network presets
	FlagNetwork = "network"
	// FlagSaveConfigPath is the flag to save the final configuration file
	FlagSaveConfigPath = "save-config-path"
	// FlagMinConfig prints only the mandatory vars
	FlagMinConfig = "min"
	// FlagSchema prints the json schema of the configuration
	FlagSchema = "schema"

	EnvVarPrefix       = "EXPLORER"
	ConfigType         = "toml"
	SaveConfigFileName = "explorer_config.toml"

	DefaultCreationFilePermissions = os.FileMode(0600)
)

/*
Config represents the configuration of the explorer backend.
The file is [TOML format], `config --min` prints the vars that
depend on the deployment and `config` the whole default file.

[TOML format]: https://en.wikipedia.org/wiki/TOML
*/
type Config struct {
	// Configure Log level for all the services, allow also to store the logs in a file
	Log log.Config
	// Common Config that affects all the services
	Common common.Config
	// DB is the sqlite database holding the synced and preprocessed data
	DB db.Config
	// KVStore is where the sync watermark is persisted
	KVStore kvstore.Config
	// Sync configures the scheduler driving the state sync
	Sync sync.Config
	// BlockDownloader configures how L1 blocks are followed
	BlockDownloader blockdownloader.Config
	// StateSync configures the collection of state updates from L1
	StateSync statesync.Config
	// Metrics configures the prometheus and status endpoint
	Metrics metrics.Config
}

// Load loads the configuration from the files passed on the command line
func Load(ctx *cli.Context) (*Config, error) {
	configFilePath := ctx.StringSlice(FlagCfg)
	filesData, err := readFiles(configFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading files: %w", err)
	}
	network := ctx.String(FlagNetwork)
	if network != "" {
		preset, err := NetworkVars(network)
		if err != nil {
			return nil, err
		}
		filesData = append([]FileData{{Name: "network_" + network, Content: preset}}, filesData...)
	}
	return LoadFile(filesData, ctx.String(FlagSaveConfigPath))
}

func readFiles(files []string) ([]FileData, error) {
	result := make([]FileData, 0, len(files))
	for _, file := range files {
		fileContent, err := readFileToString(file)
		if err != nil {
			return nil, fmt.Errorf("error reading file content: %s. Err: %w", file, err)
		}
		fileExtension := strings.TrimPrefix(filepath.Ext(file), ".")
		if fileExtension != ConfigType {
			fileContent, err = convertFileToToml(fileContent, fileExtension)
			if err != nil {
				return nil, fmt.Errorf("error converting file: %s from %s to TOML. Err: %w", file, fileExtension, err)
			}
		}
		result = append(result, FileData{Name: file, Content: fileContent})
	}
	return result, nil
}

// LoadFile renders the defaults merged with the given files. When
// saveConfigPath is set the rendered file is written there.
func LoadFile(files []FileData, saveConfigPath string) (*Config, error) {
	fileData := []FileData{
		{Name: "default_mandatory_vars", Content: DefaultMandatoryVars},
		{Name: "default_vars", Content: DefaultVars},
		{Name: "default_values", Content: DefaultValues},
	}
	fileData = append(fileData, files...)

	renderedCfg, err := NewConfigRender(fileData, EnvVarPrefix).Render()
	if err != nil {
		return nil, err
	}
	if saveConfigPath != "" {
		fullPath := filepath.Join(saveConfigPath, SaveConfigFileName)
		err = os.WriteFile(fullPath, []byte(renderedCfg), DefaultCreationFilePermissions)
		if err != nil {
			err = fmt.Errorf("error writing config file: %s. Err: %w", fullPath, err)
			log.Error(err)
			return nil, err
		}
	}
	return LoadFileFromString(renderedCfg, ConfigType)
}

// LoadFileFromString decodes an already rendered configuration
func LoadFileFromString(configFileData string, configType string) (*Config, error) {
	cfg := &Config{}
	if err := loadString(cfg, configFileData, configType, EnvVarPrefix); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfigToString renders cfg as json, as it is logged at start up
func SaveConfigToString(cfg Config) (string, error) {
	b, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Schema returns the json schema of Config
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{
		ExpandedStruct:             true,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
		FieldNameTag:               "mapstructure",
	}
	return json.MarshalIndent(r.Reflect(&Config{}), "", "  ")
}

func loadString(cfg *Config, configData string, configType string, envPrefix string) error {
	v := viper.New()
	v.SetConfigType(configType)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	if err := v.ReadConfig(bytes.NewBufferString(configData)); err != nil {
		return err
	}
	decodeHooks := []viper.DecoderConfigOption{
		// this allows arrays to be decoded from env var separated by ",", example: MY_VAR="value1,value2,value3"
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(), mapstructure.StringToSliceHookFunc(","))),
	}
	return v.Unmarshal(&cfg, decodeHooks...)
}

// Validate checks the values that have no sensible fallback
func (c *Config) Validate() error {
	if err := c.Common.Validate(); err != nil {
		return err
	}
	if c.DB.Path == "" {
		return fmt.Errorf("DB.Path is empty")
	}
	if c.Sync.MaxBlockNumber != 0 && c.Sync.MaxBlockNumber < c.Sync.EarliestBlock {
		return fmt.Errorf("Sync.MaxBlockNumber %d is below Sync.EarliestBlock %d",
			c.Sync.MaxBlockNumber, c.Sync.EarliestBlock)
	}
	if c.Sync.SyncBatchSize < 0 {
		return fmt.Errorf("Sync.SyncBatchSize must not be negative")
	}
	switch c.KVStore.Backend {
	case kvstore.BackendSQLite, "":
	case kvstore.BackendRedis:
		if c.KVStore.RedisURL == "" {
			return fmt.Errorf("KVStore.RedisURL is required by the redis backend")
		}
	default:
		return fmt.Errorf("unknown KVStore.Backend %q", c.KVStore.Backend)
	}
	return nil
}
