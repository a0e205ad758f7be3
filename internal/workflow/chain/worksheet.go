// Package chain 基于 Eino 组合 LLM 生成链
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

var defaultPromptRegistry = workflowprompt.NewRegistry()

// WorksheetChain 工作表内容生成链：模板渲染 -> LLM -> 输出
type WorksheetChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.GenerateInput, *schema.Message]
	chainErr  error
}

func NewWorksheetChain(factory workflowport.ChatModelFactory) *WorksheetChain {
	return &WorksheetChain{factory: factory}
}

func (c *WorksheetChain) Invoke(ctx context.Context, in *wfmodel.GenerateInput) (*schema.Message, error) {
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

type worksheetChainState struct {
	In       *wfmodel.GenerateInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *WorksheetChain) getChain() (compose.Runnable[*wfmodel.GenerateInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *WorksheetChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.GenerateInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.GenerateInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.GenerateInput) (*worksheetChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			return &worksheetChainState{In: in}, nil
		}),
		compose.WithNodeName("worksheet.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *worksheetChainState) (*worksheetChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			msgs, err := formatWorksheetMessages(ctx, st.In)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("worksheet.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *worksheetChainState) (*worksheetChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			if c.factory == nil {
				return nil, fmt.Errorf("llm factory not configured")
			}

			ctx = llmctx.WithWorkflowProvider(ctx, "worksheet_generate", strings.TrimSpace(st.In.Provider))
			chatModel, err := c.factory.Get(ctx, strings.TrimSpace(st.In.Provider))
			if err != nil {
				return nil, err
			}

			outMsg, err := chatModel.Generate(ctx, st.Messages, buildWorksheetModelOptions(st.In, true)...)
			if err != nil && wfnode.IsResponseFormatUnsupportedError(err) {
				logger.Warn(ctx, "llm json_schema not supported, fallback to prompt-only",
					"provider", strings.TrimSpace(st.In.Provider),
					"variant", string(st.In.Variant),
					"error", err.Error(),
				)
				outMsg, err = chatModel.Generate(ctx, st.Messages, buildWorksheetModelOptions(st.In, false)...)
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
		compose.WithNodeName("worksheet.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *worksheetChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("worksheet.finalize"),
	)

	return chain.Compile(ctx)
}

func formatWorksheetMessages(ctx context.Context, in *wfmodel.GenerateInput) ([]*schema.Message, error) {
	promptID, err := workflowprompt.PromptForVariant(in.Variant)
	if err != nil {
		return nil, err
	}
	tpl, err := defaultPromptRegistry.ChatTemplate(promptID)
	if err != nil {
		return nil, err
	}

	customBlock := ""
	if s := strings.TrimSpace(in.CustomInstructions); s != "" {
		customBlock = "Additional instructions from the therapist:\n" + s
	}

	vars := map[string]any{
		"sub_type":            strings.TrimSpace(in.SubType),
		"difficulty":          string(in.Difficulty),
		"duration":            string(in.Duration),
		"target_domains":      strings.Join(in.TargetDomains, ", "),
		"clinical_block":      wfnode.BuildClinicalBlock(in.Clinical),
		"custom_instructions": customBlock,
	}
	return tpl.Format(ctx, vars)
}

func buildWorksheetModelOptions(in *wfmodel.GenerateInput, enableSchema bool) []model.Option {
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

	if enableSchema {
		if js := contentJSONSchema(in.Variant); js != nil {
			opts = append(opts, openaiopts.WithExtraFields(map[string]any{
				"response_format": map[string]any{
					"type": "json_schema",
					"json_schema": map[string]any{
						"name":   "worksheet_" + string(in.Variant),
						"strict": false,
						"schema": js,
					},
				},
			}))
		}
	}

	return opts
}
