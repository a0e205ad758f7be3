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

// RecommendJustifyChain 为推荐结果生成逐条理由
type RecommendJustifyChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.RecommendJustifyInput, *schema.Message]
	chainErr  error
}

func NewRecommendJustifyChain(factory workflowport.ChatModelFactory) *RecommendJustifyChain {
	return &RecommendJustifyChain{factory: factory}
}

func (c *RecommendJustifyChain) Invoke(ctx context.Context, in *wfmodel.RecommendJustifyInput) (*schema.Message, error) {
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

type recommendJustifyState struct {
	In       *wfmodel.RecommendJustifyInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *RecommendJustifyChain) getChain() (compose.Runnable[*wfmodel.RecommendJustifyInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *RecommendJustifyChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.RecommendJustifyInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.RecommendJustifyInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, in *wfmodel.RecommendJustifyInput) (*recommendJustifyState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			tpl, err := defaultPromptRegistry.ChatTemplate(workflowprompt.PromptRecommendJustifyV1)
			if err != nil {
				return nil, err
			}
			msgs, err := tpl.Format(ctx, map[string]any{
				"clinical_block":   wfnode.BuildClinicalBlock(in.Clinical),
				"candidates_block": wfnode.BuildCandidatesBlock(in.CandidateLines),
			})
			if err != nil {
				return nil, err
			}
			return &recommendJustifyState{In: in, Messages: msgs}, nil
		}),
		compose.WithNodeName("recommend_justify.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *recommendJustifyState) (*recommendJustifyState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}

			ctx = llmctx.WithWorkflowProvider(ctx, "recommend_justify", strings.TrimSpace(st.In.Provider))
			chatModel, err := c.factory.Get(ctx, strings.TrimSpace(st.In.Provider))
			if err != nil {
				return nil, err
			}

			outMsg, err := chatModel.Generate(ctx, st.Messages, buildRecommendJustifyModelOptions(st.In, true)...)
			if err != nil && wfnode.IsResponseFormatUnsupportedError(err) {
				logger.Warn(ctx, "llm json_schema not supported, fallback to prompt-only",
					"provider", strings.TrimSpace(st.In.Provider),
					"error", err.Error(),
				)
				outMsg, err = chatModel.Generate(ctx, st.Messages, buildRecommendJustifyModelOptions(st.In, false)...)
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
		compose.WithNodeName("recommend_justify.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *recommendJustifyState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("recommend_justify.finalize"),
	)

	return chain.Compile(ctx)
}

func buildRecommendJustifyModelOptions(in *wfmodel.RecommendJustifyInput, enableSchema bool) []model.Option {
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
		opts = append(opts, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"name":   "recommend_justifications",
					"strict": false,
					"schema": justificationsJSONSchema(),
				},
			},
		}))
	}

	return opts
}
