package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"paperdeck/internal/domain"
)

const (
	StageInterpreter = "interpreter"
	StageFormatter   = "formatter"

	interpreterCaption = "pdfは以下の通り： \n\n"
	formatterCaption   = "Marpコンテンツは以下の通り：\n\n"
)

// FormatterPrompt translates and normalizes Marp output into Japanese.
const FormatterPrompt = `あなたは優秀な翻訳者兼フォーマッター。
与えられた英語もしくは日本語のMarpフォーマットのスライド内容を、
以下の規則に従って日本語に翻訳して：

- 出力は"---"から始めること
- テンプレートのMarp header, titleスライドはない場合には適切に追加すること
- スライドのタイトルと著者名は翻訳せず、元の英語のままにすること
- スライドに関係のない文章は削除すること
- それ以外のすべての内容を日本語に翻訳すること
- 技術用語や固有名詞は適切に扱うこと
- 翻訳後も元の意味を正確に保持すること
- 日本語として自然で読みやすい文章にすること
- 「である調」で翻訳すること
`

var builtinPrompts = map[string]string{
	StageFormatter: FormatterPrompt,
}

// AgentSettings is the on-disk agent-definition document.
type AgentSettings struct {
	Stages []StageDefinition `yaml:"stages"`
}

// StageDefinition is one stage as written by a human. Pointer fields tell
// "omitted" apart from an explicit zero.
type StageDefinition struct {
	Name             string   `yaml:"name"`
	Model            string   `yaml:"model"`
	Temperature      *float64 `yaml:"temperature"`
	MaxTokens        *int     `yaml:"max_tokens"`
	TopP             *float64 `yaml:"top_p"`
	SystemPromptPath string   `yaml:"system_prompt_path"`
	Caption          *string  `yaml:"caption"`
}

// StageSpec is a stage definition with every default applied. Exactly one of
// SystemPromptPath and BuiltinPrompt is set.
type StageSpec struct {
	Name             string
	Model            string
	Temperature      float64
	MaxTokens        int
	TopP             float64
	SystemPromptPath string
	BuiltinPrompt    string
	Caption          string
}

// LoadAgentSettings reads the agent-definition document at path. A missing
// file yields the default interpreter -> formatter pipeline.
func LoadAgentSettings(path string, llm LLMConfig, paths PathsConfig) ([]StageSpec, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return DefaultStages(llm, paths), nil
	}
	data, err := os.ReadFile(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultStages(llm, paths), nil
		}
		return nil, domain.InvalidConfig(fmt.Sprintf("read agent settings %s", trimmed), err)
	}
	specs, err := ParseAgentSettings(data, llm)
	if err != nil {
		return nil, fmt.Errorf("agent settings %s: %w", trimmed, err)
	}
	return specs, nil
}

// ParseAgentSettings decodes an agent-definition payload and fills omitted
// fields from the llm defaults.
func ParseAgentSettings(data []byte, llm LLMConfig) ([]StageSpec, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, domain.InvalidConfig("agent settings payload is empty", nil)
	}
	var settings AgentSettings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, domain.InvalidConfig("decode agent settings", err)
	}
	if len(settings.Stages) == 0 {
		return nil, domain.InvalidConfig("agent settings declare no stages", nil)
	}

	seen := make(map[string]struct{}, len(settings.Stages))
	specs := make([]StageSpec, 0, len(settings.Stages))
	for i, def := range settings.Stages {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			return nil, domain.InvalidConfig(fmt.Sprintf("stage %d has no name", i+1), nil)
		}
		if _, dup := seen[name]; dup {
			return nil, domain.InvalidConfig(fmt.Sprintf("stage %q declared twice", name), nil)
		}
		seen[name] = struct{}{}

		spec := StageSpec{
			Name:             name,
			Model:            strings.TrimSpace(def.Model),
			Temperature:      llm.Temperature,
			MaxTokens:        llm.MaxTokens,
			TopP:             llm.TopP,
			SystemPromptPath: strings.TrimSpace(def.SystemPromptPath),
		}
		if spec.Model == "" {
			spec.Model = llm.Model
		}
		if def.Temperature != nil {
			spec.Temperature = *def.Temperature
		}
		if def.MaxTokens != nil {
			spec.MaxTokens = *def.MaxTokens
		}
		if def.TopP != nil {
			spec.TopP = *def.TopP
		}
		if def.Caption != nil {
			spec.Caption = *def.Caption
		}
		if spec.SystemPromptPath == "" {
			builtin, ok := builtinPrompts[name]
			if !ok {
				return nil, domain.InvalidConfig(fmt.Sprintf("stage %q has no system_prompt_path", name), nil)
			}
			spec.BuiltinPrompt = builtin
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// DefaultStages mirrors the two-pass setup: a deterministic interpreter using
// the llm defaults, then a warmer formatter that translates the markup.
func DefaultStages(llm LLMConfig, paths PathsConfig) []StageSpec {
	return []StageSpec{
		{
			Name:             StageInterpreter,
			Model:            llm.Model,
			Temperature:      llm.Temperature,
			MaxTokens:        llm.MaxTokens,
			TopP:             llm.TopP,
			SystemPromptPath: paths.PromptTemplatePath,
			Caption:          interpreterCaption,
		},
		{
			Name:          StageFormatter,
			Model:         llm.Model,
			Temperature:   0.3,
			MaxTokens:     6000,
			TopP:          0.95,
			BuiltinPrompt: FormatterPrompt,
			Caption:       formatterCaption,
		},
	}
}
