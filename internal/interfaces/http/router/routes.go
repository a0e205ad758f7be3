// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, deps Deps) {
	// 工作表
	worksheets := v1.Group("/worksheets")
	{
		worksheets.POST("/generate", deps.Worksheet.Generate)
		worksheets.GET("", deps.Worksheet.List)
		worksheets.GET("/:wid", deps.Worksheet.Get)
		worksheets.GET("/:wid/status", deps.Worksheet.GetStatus)
		worksheets.GET("/:wid/download", deps.Worksheet.Download)
		worksheets.DELETE("/:wid", deps.Lifecycle.Archive)

		// 版本谱系与克隆
		worksheets.POST("/:wid/versions", deps.Version.CreateVersion)
		worksheets.GET("/:wid/versions", deps.Version.History)
		worksheets.POST("/:wid/clone", deps.Version.Clone)

		// 公开发布
		worksheets.POST("/:wid/publish", deps.Lifecycle.Publish)
		worksheets.POST("/:wid/unpublish", deps.Lifecycle.Unpublish)

		// 局部重生成
		worksheets.POST("/:wid/sections/:sid/regenerate", deps.Worksheet.RegenerateSection)
		worksheets.POST("/:wid/images/:iid/regenerate", deps.Worksheet.RegenerateImage)

		// 反馈与审核
		worksheets.POST("/:wid/reviews", deps.Feedback.SubmitReview)
		worksheets.GET("/:wid/reviews", deps.Feedback.ListReviews)
		worksheets.POST("/:wid/completions", deps.Feedback.RecordCompletion)
		worksheets.POST("/:wid/flags", deps.Lifecycle.SubmitFlag)
	}

	// 举报裁决
	flags := v1.Group("/flags")
	{
		flags.POST("/:fid/resolve", deps.Lifecycle.ResolveFlag)
	}

	// 儿童维度推荐
	children := v1.Group("/children")
	{
		children.GET("/:cid/recommendations", deps.Recommend.Recommendations)
		children.GET("/:cid/difficulty", deps.Recommend.Difficulty)
	}

	// 报告解析
	reports := v1.Group("/reports")
	{
		reports.POST("/parse", deps.Report.Parse)
	}

	// 任务查询
	jobs := v1.Group("/jobs")
	{
		jobs.GET("/:jid", deps.Job.GetJob)
	}
}
