package monitor

import (
	"os"
	"time"

	"scholarxp-api/config"
	"scholarxp-api/services"

	"github.com/gin-gonic/gin"
)

var startedAt = time.Now()

func logsToken() string {
	if token := os.Getenv("MONITOR_TOKEN"); token != "" {
		return token
	}
	return "secret-token"
}

// RegisterStatusRoute exposes a JSON snapshot of server health: uptime,
// database connectivity and cache hit rates.
func RegisterStatusRoute(router *gin.Engine, cache *services.CacheService) {
	router.GET("/monitor/status", func(c *gin.Context) {
		dbStatus := "ok"
		if sqlDB, err := config.DB.DB(); err != nil {
			dbStatus = "error: " + err.Error()
		} else if err := sqlDB.Ping(); err != nil {
			dbStatus = "error: " + err.Error()
		}

		hits, misses := cache.Stats()

		c.JSON(200, gin.H{
			"status":         "ok",
			"uptime_seconds": int64(time.Since(startedAt).Seconds()),
			"database":       dbStatus,
			"cache": gin.H{
				"backend": cache.Backend(),
				"hits":    hits,
				"misses":  misses,
			},
		})
	})
}

func RegisterMonitorPage(router *gin.Engine) {
	router.GET("/monitor", func(c *gin.Context) {
		c.Data(200, "text/html; charset=utf-8", []byte(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1.0" />
  <title>ScholarXP Monitor</title>
  <style>
    * { margin: 0; padding: 0; box-sizing: border-box; }
    body {
      background: #0f0f1a;
      color: #e0e0e0;
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
      min-height: 100vh;
      padding: 20px;
    }
    .container { max-width: 1000px; margin: 0 auto; }
    h1 { font-size: 2rem; color: #a5b4fc; margin-bottom: 1.5rem; }
    .card {
      background: rgba(255, 255, 255, 0.05);
      border: 1px solid rgba(255, 255, 255, 0.1);
      border-radius: 12px;
      padding: 1.25rem;
      margin-bottom: 1.5rem;
    }
    #status { font-size: 1.1rem; font-weight: 600; }
    #logs {
      background: rgba(0, 0, 0, 0.4);
      padding: 1rem;
      border-radius: 8px;
      max-height: 480px;
      overflow-y: auto;
      white-space: pre-wrap;
      font-family: 'Monaco', 'Consolas', monospace;
      font-size: 0.85rem;
      line-height: 1.5;
    }
    button {
      padding: 0.5rem 1rem;
      background: #667eea;
      color: #fff;
      border: none;
      border-radius: 6px;
      cursor: pointer;
      font-weight: 600;
    }
  </style>
</head>
<body>
  <div class="container">
    <h1>ScholarXP Monitor</h1>
    <div class="card">
      <div id="status">Status: checking...</div>
    </div>
    <div class="card">
      <button onclick="toggleLive()" id="toggleBtn">Pause Live Logs</button>
      <pre id="logs">Loading logs...</pre>
    </div>
  </div>
  <script>
    let liveLogs = true;
    const logsElement = document.getElementById('logs');
    const statusElement = document.getElementById('status');
    const toggleBtn = document.getElementById('toggleBtn');
    const params = new URLSearchParams(window.location.search);
    const token = params.get('token') || 'secret-token';

    function fetchStatus() {
      fetch('/monitor/status')
        .then(res => res.json())
        .then(data => {
          const up = Math.floor(data.uptime_seconds / 60);
          statusElement.textContent = 'Status: ' + data.status +
            ' | DB: ' + data.database +
            ' | cache ' + data.cache.backend + ' ' + data.cache.hits + '/' + (data.cache.hits + data.cache.misses) +
            ' | up ' + up + 'm';
        })
        .catch(() => { statusElement.textContent = 'Status: offline'; });
    }

    function fetchLogs() {
      if (!liveLogs) return;
      fetch('/logs?token=' + token)
        .then(res => res.text())
        .then(data => {
          logsElement.textContent = data;
          logsElement.scrollTop = logsElement.scrollHeight;
        });
    }

    function toggleLive() {
      liveLogs = !liveLogs;
      toggleBtn.textContent = liveLogs ? 'Pause Live Logs' : 'Resume Live Logs';
    }

    fetchStatus();
    fetchLogs();
    setInterval(fetchStatus, 5000);
    setInterval(fetchLogs, 5000);
  </script>
</body>
</html>`))
	})
}

func RegisterLogsRoute(router *gin.Engine) {
	router.GET("/logs", func(c *gin.Context) {
		if c.Query("token") != logsToken() {
			c.JSON(401, gin.H{"error": "Unauthorized"})
			return
		}
		logData, err := os.ReadFile(config.LogFilePath())
		if err != nil {
			c.JSON(500, gin.H{"error": "Unable to read log"})
			return
		}
		c.Data(200, "text/plain; charset=utf-8", logData)
	})
}
