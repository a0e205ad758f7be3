// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// PageRequest 分页请求参数
type PageRequest struct {
	Page     int `form:"page" json:"page"`
	PageSize int `form:"page_size" json:"page_size"`
}

// Normalize 规范化分页参数
func (r *PageRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = 20
	}
	if r.PageSize > 100 {
		r.PageSize = 100
	}
}

// BindPage 从 Gin Context 绑定分页参数
func BindPage(c *gin.Context) PageRequest {
	req := PageRequest{
		Page:     parseIntWithDefault(c.Query("page"), 1),
		PageSize: parseIntWithDefault(c.Query("page_size"), 20),
	}
	req.Normalize()
	return req
}

func parseIntWithDefault(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// BindWorksheetID 获取路径中的工作表 ID
func BindWorksheetID(c *gin.Context) string {
	return c.Param("wid")
}

// BindSectionID 获取路径中的小节 ID
func BindSectionID(c *gin.Context) string {
	return c.Param("sid")
}

// BindIllustrationID 获取路径中的插图 ID
func BindIllustrationID(c *gin.Context) string {
	return c.Param("iid")
}

// BindFlagID 获取路径中的举报 ID
func BindFlagID(c *gin.Context) string {
	return c.Param("fid")
}

// BindChildID 获取路径中的儿童 ID
func BindChildID(c *gin.Context) string {
	return c.Param("cid")
}

// BindJobID 获取路径中的任务 ID
func BindJobID(c *gin.Context) string {
	return c.Param("jid")
}
