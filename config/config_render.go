package config

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/perpx/explorer/log"
	"github.com/valyala/fasttemplate"
)

const (
	startTag = "{{"
	endTag   = "}}"
)

var (
	ErrCycleVars                 = fmt.Errorf("cycle vars")
	ErrMissingVars               = fmt.Errorf("missing vars")
	ErrUnsupportedConfigFileType = fmt.Errorf("unsupported config file type")

	unquotedVarRegexp = regexp.MustCompile(`=\s*\{\{([^}:]+)\}\}`)
	quotedVarRegexp   = regexp.MustCompile(`=\s*\"\{\{([^}:]+:int)\}\}\"`)
	typeMarkRegexp    = regexp.MustCompile(`\{\{([^}:]+:int)\}\}`)
)

type FileData struct {
	Name    string
	Content string
}

// ConfigRender merges TOML files and resolves the {{Var}} indirections in them
type ConfigRender struct {
	// Later files override earlier ones
	FilesData []FileData
	// LookupEnvFunc resolves environment variables, typically os.LookupEnv
	LookupEnvFunc func(key string) (string, bool)
	EnvPrefix     string
}

func NewConfigRender(filesData []FileData, envPrefix string) *ConfigRender {
	return &ConfigRender{
		FilesData:     filesData,
		LookupEnvFunc: os.LookupEnv,
		EnvPrefix:     envPrefix,
	}
}

// Render merges all the files and resolves the vars inside
func (c *ConfigRender) Render() (string, error) {
	mergedData, err := c.Merge()
	if err != nil {
		return "", fmt.Errorf("fail to merge files. Err: %w", err)
	}
	return c.ResolveVars(mergedData)
}

func (c *ConfigRender) Merge() (string, error) {
	k := koanf.New(".")
	for _, data := range c.FilesData {
		dataToml := convertVarsToStrings(data.Content)
		err := k.Load(rawbytes.Provider([]byte(dataToml)), toml.Parser())
		if err != nil {
			log.Errorf("error loading file %s. Err:%v. FileData: %v", data.Name, err, dataToml)
			return "", fmt.Errorf("fail to load converted template %s to toml. Err: %w", data.Name, err)
		}
	}
	marshaled, err := k.Marshal(toml.Parser())
	if err != nil {
		return "", fmt.Errorf("fail to marshal to toml. Err: %w", err)
	}
	return RemoveQuotesForVars(string(marshaled)), nil
}

func (c *ConfigRender) ResolveVars(fullConfigData string) (string, error) {
	// values that are indirections keep the "{{tag}}" form, nothing is resolved yet
	tpl, valuesDefined, err := c.readTemplateAndDefinedValues(fullConfigData)
	if err != nil {
		return "", err
	}
	// A={{B}} keeps the template form when B is not defined
	rendered := c.executeTemplate(tpl, valuesDefined, true)
	rendered = RemoveTypeMarks(rendered)
	unresolvedVars := c.GetUnresolvedVars(tpl, valuesDefined, true)
	if len(unresolvedVars) > 0 {
		return rendered, fmt.Errorf("missing vars: %v. Err: %w", unresolvedVars, ErrMissingVars)
	}
	// vars left after a full pass depend on other vars: A={{B}} B={{C}}.
	// They resolve in further passes unless they form a cycle
	finalConfigData, err := c.ResolveCycle(rendered)
	if err != nil {
		return fullConfigData, err
	}
	return finalConfigData, nil
}

// ResolveCycle renders the data until no vars are left. Every pass must
// reduce the number of vars, otherwise there is a cycle.
func (c *ConfigRender) ResolveCycle(partialResolvedConfigData string) (string, error) {
	tmpData := RemoveQuotesForVars(partialResolvedConfigData)
	pendingVars := c.GetVars(tmpData)
	if len(pendingVars) == 0 {
		return partialResolvedConfigData, nil
	}
	log.Debugf("ResolveCycle: pending vars: %v", pendingVars)
	previousData := tmpData
	for len(pendingVars) > 0 {
		previousVars := pendingVars
		tpl, valuesDefined, err := c.readTemplateAndDefinedValues(previousData)
		if err != nil {
			log.Errorf("ResolveCycle: fails reading template. Err: %v. Data:%s", err, previousData)
			return "", fmt.Errorf("fails to read template ResolveCycle. Err: %w", err)
		}
		tmpData = RemoveQuotesForVars(c.executeTemplate(tpl, valuesDefined, true))
		tmpData = RemoveTypeMarks(tmpData)

		pendingVars = c.GetVars(tmpData)
		if len(pendingVars) == len(previousVars) {
			return partialResolvedConfigData, fmt.Errorf("not resolved cycle vars: %v. Err: %w", pendingVars, ErrCycleVars)
		}
		previousData = tmpData
	}
	return previousData, nil
}

// readTemplateAndDefinedValues expects the vars unquoted: A={{B}} not A="{{B}}"
func (c *ConfigRender) readTemplateAndDefinedValues(data string) (*fasttemplate.Template,
	map[string]interface{}, error) {
	tpl, err := fasttemplate.NewTemplate(data, startTag, endTag)
	if err != nil {
		return nil, nil, fmt.Errorf("fail to load template. Err: %w", err)
	}
	k := koanf.New(".")
	out := convertVarsToStrings(data)
	if err := k.Load(rawbytes.Provider([]byte(out)), toml.Parser()); err != nil {
		return nil, nil, fmt.Errorf("error parsing data. Content: %s. Err: %w", out, err)
	}
	return tpl, k.All(), nil
}

// convertVarsToStrings quotes the unquoted vars so the data is valid TOML,
// marking them to unquote them again after the merge
func convertVarsToStrings(data string) string {
	return unquotedVarRegexp.ReplaceAllString(data, `= "{{${1}:int}}"`)
}

func RemoveQuotesForVars(data string) string {
	return quotedVarRegexp.ReplaceAllStringFunc(data, func(match string) string {
		submatch := quotedVarRegexp.FindStringSubmatch(match)
		if len(submatch) > 1 {
			return "= " + startTag + strings.Split(submatch[1], ":")[0] + endTag
		}
		return match
	})
}

func RemoveTypeMarks(data string) string {
	return typeMarkRegexp.ReplaceAllStringFunc(data, func(match string) string {
		submatch := typeMarkRegexp.FindStringSubmatch(match)
		if len(submatch) > 1 {
			return startTag + strings.Split(submatch[1], ":")[0] + endTag
		}
		return match
	})
}

func (c *ConfigRender) executeTemplate(tpl *fasttemplate.Template,
	data map[string]interface{},
	useEnv bool) string {
	return tpl.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		if useEnv {
			if v, ok := c.findTagInEnvironment(tag); ok {
				return w.Write([]byte(v))
			}
		}
		if v, ok := data[tag]; ok {
			return w.Write([]byte(fmt.Sprintf("%v", v)))
		}
		return w.Write([]byte(startTag + tag + endTag))
	})
}

// GetUnresolvedVars returns the vars in template that are not in data
func (c *ConfigRender) GetUnresolvedVars(tpl *fasttemplate.Template,
	data map[string]interface{}, useEnv bool) []string {
	var unresolved []string
	tpl.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		if useEnv {
			if v, ok := c.findTagInEnvironment(tag); ok {
				return w.Write([]byte(v))
			}
		}
		if _, ok := data[tag]; !ok && !contains(unresolved, tag) {
			unresolved = append(unresolved, tag)
		}
		return 0, nil
	})
	return unresolved
}

// GetVars returns the vars in template
func (c *ConfigRender) GetVars(configData string) []string {
	tpl, err := fasttemplate.NewTemplate(configData, startTag, endTag)
	if err != nil {
		return []string{}
	}
	var vars []string
	tpl.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		vars = append(vars, tag)
		return 0, nil
	})
	return vars
}

func (c *ConfigRender) findTagInEnvironment(tag string) (string, bool) {
	return c.LookupEnvFunc(c.EnvPrefix + "_" + strings.ReplaceAll(tag, ".", "_"))
}

func contains(vars []string, search string) bool {
	for _, v := range vars {
		if v == search {
			return true
		}
	}
	return false
}

func readFileToString(filename string) (string, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func convertFileToToml(fileData string, fileType string) (string, error) {
	switch strings.ToLower(fileType) {
	case "json":
		k := koanf.New(".")
		err := k.Load(rawbytes.Provider([]byte(fileData)), json.Parser())
		if err != nil {
			return fileData, fmt.Errorf("error loading json file. Err: %w", err)
		}
		tomlData, err := toml.Parser().Marshal(k.Raw())
		if err != nil {
			return fileData, fmt.Errorf("error converting json to toml. Err: %w", err)
		}
		return string(tomlData), nil
	case "yml", "yaml", "ini":
		return fileData, fmt.Errorf("cant convert from %s to TOML. Err: %w", fileType, ErrUnsupportedConfigFileType)
	default:
		log.Warnf("filetype %s unknown, assuming is a TOML file", fileType)
		return fileData, nil
	}
}
