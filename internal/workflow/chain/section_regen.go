package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	llmctx "upllyft-worksheet-api/internal/domain/service"
	wfmodel "upllyft-worksheet-api/internal/workflow/model"
	wfnode "upllyft-worksheet-api/internal/workflow/node"
	workflowport "upllyft-worksheet-api/internal/workflow/port"
	workflowprompt "upllyft-worksheet-api/internal/workflow/prompt"
	"upllyft-worksheet-api/pkg/logger"
)

// SectionRegenChain 单小节重生成链：保持全表上下文，仅替换指定小节
type SectionRegenChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.SectionRegenInput, *schema.Message]
	chainErr  error
}

func NewSectionRegenChain(factory workflowport.ChatModelFactory) *SectionRegenChain {
	return &SectionRegenChain{factory: factory}
}

func (c *SectionRegenChain) Invoke(ctx context.Context, in *wfmodel.SectionRegenInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}
	return chain.Invoke(ctx, in)
}

type sectionRegenState struct {
	In       *wfmodel.SectionRegenInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *SectionRegenChain) getChain() (compose.Runnable[*wfmodel.SectionRegenInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *SectionRegenChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.SectionRegenInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.SectionRegenInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, in *wfmodel.SectionRegenInput) (*sectionRegenState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			msgs, err := formatSectionRegenMessages(ctx, in)
			if err != nil {
				return nil, err
			}
			return &sectionRegenState{In: in, Messages: msgs}, nil
		}),
		compose.WithNodeName("section_regen.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *sectionRegenState) (*sectionRegenState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}

			ctx = llmctx.WithWorkflowProvider(ctx, "section_regen", strings.TrimSpace(st.In.Provider))
			chatModel, err := c.factory.Get(ctx, strings.TrimSpace(st.In.Provider))
			if err != nil {
				return nil, err
			}

			outMsg, err := chatModel.Generate(ctx, st.Messages, buildSectionRegenModelOptions(st.In, true)...)
			if err != nil && wfnode.IsResponseFormatUnsupportedError(err) {
				logger.Warn(ctx, "llm json_object not supported, fallback to prompt-only",
					"provider", strings.TrimSpace(st.In.Provider),
					"error", err.Error(),
				)
				outMsg, err = chatModel.Generate(ctx, st.Messages, buildSectionRegenModelOptions(st.In, false)...)
			}
			if err != nil {
				return nil, err
			}
			if outMsg == nil {
				return nil, fmt.Errorf("empty llm response")
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName("section_regen.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *sectionRegenState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("section_regen.finalize"),
	)

	return chain.Compile(ctx)
}

func formatSectionRegenMessages(ctx context.Context, in *wfmodel.SectionRegenInput) ([]*schema.Message, error) {
	tpl, err := defaultPromptRegistry.ChatTemplate(workflowprompt.PromptSectionRegenV1)
	if err != nil {
		return nil, err
	}

	guidance := strings.TrimSpace(in.Guidance)
	if guidance == "" {
		guidance = "none, produce a fresh variation"
	}

	vars := map[string]any{
		"sub_type":       strings.TrimSpace(in.SubType),
		"difficulty":     string(in.Difficulty),
		"target_domains": strings.Join(in.TargetDomains, ", "),
		"clinical_block": wfnode.BuildClinicalBlock(in.Clinical),
		"worksheet_json": in.WorksheetJSON,
		"section_json":   in.SectionJSON,
		"guidance":       guidance,
	}
	return tpl.Format(ctx, vars)
}

// 小节结构随变体不同，这里只约束输出为 JSON 对象，结构由调用方校验
func buildSectionRegenModelOptions(in *wfmodel.SectionRegenInput, enableJSONMode bool) []model.Option {
	opts := make([]model.Option, 0, 4)
	if in == nil {
		return opts
	}

	if in.Temperature != nil {
		opts = append(opts, model.WithTemperature(*in.Temperature))
	}
	if in.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*in.MaxTokens))
	}
	if m := strings.TrimSpace(in.Model); m != "" {
		opts = append(opts, model.WithModel(m))
	}

	if enableJSONMode {
		opts = append(opts, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{"type": "json_object"},
		}))
	}

	return opts
}
