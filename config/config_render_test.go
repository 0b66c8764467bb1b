package config

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type testCaseData struct {
	name                 string
	contents             []string
	envVars              map[string]string
	expectedMerged       string
	expectedRenderConfig string
	expectedError        error
}

func TestConfigRenderMergeFiles(t *testing.T) {
	executeCases(t, []testCaseData{
		{
			name:                 "disjoint files",
			contents:             []string{"EarliestBlock=1\n", "PathRWData=\"/data\"\n"},
			expectedRenderConfig: "EarliestBlock = 1\nPathRWData = \"/data\"\n",
		},
		{
			name:                 "later files win",
			contents:             []string{"EarliestBlock=1\n", "EarliestBlock=2\nPathRWData=\"/data\"\n", "EarliestBlock=3\nSafeBlockDistance=40\n"},
			expectedRenderConfig: "EarliestBlock = 3\nPathRWData = \"/data\"\nSafeBlockDistance = 40\n",
		},
		{
			name:                 "last file leaves a var undefined",
			contents:             []string{"EarliestBlock=1\n", "EarliestBlock={{DeployBlock}}\nSafeBlockDistance=40\n"},
			expectedRenderConfig: "EarliestBlock = {{DeployBlock}}\nSafeBlockDistance = 40\n",
			expectedError:        ErrMissingVars,
		},
	})
}

func TestConfigRenderCycles(t *testing.T) {
	executeCases(t, []testCaseData{
		{
			name:                 "three vars",
			contents:             []string{"EarliestBlock= {{PathRWData}}\n", "PathRWData= {{SafeBlockDistance}}\nSafeBlockDistance={{EarliestBlock}}\n"},
			expectedMerged:       "EarliestBlock = {{PathRWData}}\nPathRWData = {{SafeBlockDistance}}\nSafeBlockDistance = {{EarliestBlock}}\n",
			expectedRenderConfig: "EarliestBlock = {{PathRWData}}\nPathRWData = {{SafeBlockDistance}}\nSafeBlockDistance = {{EarliestBlock}}\n",
			expectedError:        ErrCycleVars,
		},
		{
			name:                 "two vars",
			contents:             []string{"EarliestBlock= {{PathRWData}}\n", "PathRWData= {{EarliestBlock}}\n"},
			expectedRenderConfig: "EarliestBlock = {{PathRWData}}\nPathRWData = {{EarliestBlock}}\n",
			expectedError:        ErrCycleVars,
		},
		{
			name:                 "self reference",
			contents:             []string{"EarliestBlock= {{EarliestBlock}}\n", ""},
			expectedRenderConfig: "EarliestBlock = {{EarliestBlock}}\n",
			expectedError:        ErrCycleVars,
		},
		{
			name:                 "broken by env var on the first var",
			contents:             []string{"EarliestBlock= {{PathRWData}}\n", "PathRWData= {{SafeBlockDistance}}\nSafeBlockDistance={{EarliestBlock}}\n"},
			envVars:              map[string]string{"EXPLORER_EarliestBlock": "7"},
			expectedRenderConfig: "EarliestBlock = 7\nPathRWData = 7\nSafeBlockDistance = 7\n",
		},
		{
			name:                 "broken by env var on the middle var",
			contents:             []string{"EarliestBlock= {{PathRWData}}\n", "PathRWData= {{SafeBlockDistance}}\nSafeBlockDistance={{EarliestBlock}}\n"},
			envVars:              map[string]string{"EXPLORER_PathRWData": "7"},
			expectedRenderConfig: "EarliestBlock = 7\nPathRWData = 7\nSafeBlockDistance = 7\n",
		},
		{
			name:                 "broken by env var on the last var",
			contents:             []string{"EarliestBlock= {{PathRWData}}\n", "PathRWData= {{SafeBlockDistance}}\nSafeBlockDistance={{EarliestBlock}}\n"},
			envVars:              map[string]string{"EXPLORER_SafeBlockDistance": "7"},
			expectedRenderConfig: "EarliestBlock = 7\nPathRWData = 7\nSafeBlockDistance = 7\n",
		},
	})
}

func TestConfigRenderVarTypes(t *testing.T) {
	executeCases(t, []testCaseData{
		{
			name: "int, string and bool vars keep their type",
			contents: []string{"EarliestBlock={{DeployBlock}}\n Path= \"{{DataDir}}\"\n Enabled={{MetricsOn}}\n",
				"DataDir=\"/tmp/explorer\"\nDeployBlock=4\nMetricsOn=true\nUnresolved={{NotDefined}}\n"},
			expectedError: ErrMissingVars,
			expectedRenderConfig: "DataDir = \"/tmp/explorer\"\nDeployBlock = 4\nEarliestBlock = 4\nEnabled = true\n" +
				"MetricsOn = true\nPath = \"/tmp/explorer\"\nUnresolved = {{NotDefined}}\n",
		},
		{
			name:                 "var inside a string",
			contents:             []string{"PathRWData=\"/tmp\"\n", "Path= \"{{PathRWData}}/explorer.sqlite\"\n"},
			expectedRenderConfig: "Path = \"/tmp/explorer.sqlite\"\nPathRWData = \"/tmp\"\n",
		},
		{
			name:                 "string var quoted in place",
			contents:             []string{"TradingMode=\"perpetual\"\n", "Mode=\"{{TradingMode}}\"\n"},
			expectedRenderConfig: "Mode = \"perpetual\"\nTradingMode = \"perpetual\"\n",
		},
		{
			name:                 "string var overridden by env keeps the quotes of the file",
			contents:             []string{"TradingMode=\"perpetual\"\n", "Mode=\"{{TradingMode}}\"\n"},
			envVars:              map[string]string{"EXPLORER_TradingMode": "spot"},
			expectedRenderConfig: "Mode = \"spot\"\nTradingMode = \"perpetual\"\n",
		},
		{
			name:                 "undefined var set by env as number",
			contents:             []string{"ChainID={{L1ChainID}}\n"},
			envVars:              map[string]string{"EXPLORER_L1ChainID": "5"},
			expectedRenderConfig: "ChainID = 5\n",
		},
		// the exported value carries its own quotes
		{
			name:                 "undefined var set by env as string",
			contents:             []string{"ChainID={{L1ChainID}}\n"},
			envVars:              map[string]string{"EXPLORER_L1ChainID": "\"5\""},
			expectedRenderConfig: "ChainID = \"5\"\n",
		},
	})
}

func TestConfigRenderComplexStruct(t *testing.T) {
	defaultValues := `
	[Common]
	L1URL="http://generic_url"
	ChainID=5
	[Metrics]
		Host="http://localhost"
`
	confiFile := `
		[Metrics]
		Host="{{Common.L1URL}}"
	`
	var tests = []testCaseData{
		{
			name:                 "Complex struct merge",
			contents:             []string{defaultValues, confiFile},
			expectedRenderConfig: "\n[Common]\n  ChainID = 5\n  L1URL = \"http://generic_url\"\n\n[Metrics]\n  Host = \"http://generic_url\"\n",
		},
		// Common.L1URL is not a var, the env var only changes the value where it is used
		{
			name:                 "Complex struct merge override env-var, but we must propagate the string type",
			contents:             []string{defaultValues, confiFile},
			envVars:              map[string]string{"EXPLORER_Common_L1URL": "env"},
			expectedRenderConfig: "\n[Common]\n  ChainID = 5\n  L1URL = \"http://generic_url\"\n\n[Metrics]\n  Host = \"env\"\n",
		},
	}
	executeCases(t, tests)
}

func TestConfigRenderConvertFileToToml(t *testing.T) {
	jsonFile := `{
	"EarliestBlock": 6934760,
	"ContractAddress": "0x6E5de338D71af33B57831C5552775f54394d181B",
	"Sync": {
		"SyncBatchSize": 6000
	}
}
`
	data, err := convertFileToToml(jsonFile, "json")
	require.NoError(t, err)
	require.Equal(t, "ContractAddress = \"0x6E5de338D71af33B57831C5552775f54394d181B\"\nEarliestBlock = 6934760.0\n\n[Sync]\n  SyncBatchSize = 6000.0\n", data)

	_, err = convertFileToToml("a: 1", "yaml")
	require.ErrorIs(t, err, ErrUnsupportedConfigFileType)
}

type configRenderTestData struct {
	Sut     *ConfigRender
	EnvMock *osLookupEnvMock
}

func newConfigRenderTestData(data []string) configRenderTestData {
	envMock := &osLookupEnvMock{
		Env: map[string]string{},
	}
	filesData := make([]FileData, len(data))
	for i, d := range data {
		filesData[i] = FileData{Name: fmt.Sprintf("file%d", i), Content: d}
	}
	return configRenderTestData{
		EnvMock: envMock,
		Sut: &ConfigRender{
			FilesData:     filesData,
			LookupEnvFunc: envMock.LookupEnv,
			EnvPrefix:     "EXPLORER",
		},
	}
}

type osLookupEnvMock struct {
	Env map[string]string
}

func (m *osLookupEnvMock) LookupEnv(key string) (string, bool) {
	val, exists := m.Env[key]
	return val, exists
}

func executeCases(t *testing.T, tests []testCaseData) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testData := newConfigRenderTestData(tt.contents)
			if tt.envVars != nil {
				testData.EnvMock.Env = tt.envVars
			}
			if tt.expectedMerged != "" {
				merged, err := testData.Sut.Merge()
				require.NoError(t, err)
				require.Equal(t, tt.expectedMerged, merged)
			}
			res, err := testData.Sut.Render()
			if tt.expectedError != nil {
				require.Error(t, err)
				require.ErrorIs(t, err, tt.expectedError)
			} else {
				require.NoError(t, err)
			}
			if len(tt.expectedRenderConfig) > 0 {
				require.Equal(t, tt.expectedRenderConfig, res)
			}
		})
	}
}
