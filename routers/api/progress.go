package api

import (
	"net/http"
	"time"

	"WorldDirector-server/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// 查询生成进度：GET /v1/api/progress/:prompt_hash
func GetProgress(c *gin.Context) {
	promptHash := c.Param("prompt_hash")
	if st, ok := Pipeline.Progress.Get(promptHash); ok {
		c.JSON(http.StatusOK, st)
		return
	}
	c.JSON(http.StatusNotFound, gin.H{
		"status":   "not_found",
		"progress": 0,
		"message":  "Generation not found",
	})
}

// 生成进度 WebSocket 推送（每秒轮询进度表，状态/进度变化时推送，到终态后关闭）
func ProgressWebSocket(c *gin.Context) {
	promptHash := c.Param("prompt_hash")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "WebSocket升级失败"})
		return
	}
	defer conn.Close()

	st, ok := Pipeline.Progress.Get(promptHash)
	if !ok {
		conn.WriteJSON(map[string]interface{}{"error": "generation not found: " + promptHash})
		return
	}
	_ = conn.WriteJSON(st)
	if service.IsTerminal(st.Status) {
		return
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	prev := st
	for range ticker.C {
		cur, ok := Pipeline.Progress.Get(promptHash)
		if !ok {
			continue
		}

		if cur != prev {
			if err := conn.WriteJSON(cur); err != nil {
				break
			}
			prev = cur
		}

		if service.IsTerminal(cur.Status) {
			// 发送最终状态后关闭连接
			_ = conn.WriteJSON(cur)
			break
		}
	}
}
