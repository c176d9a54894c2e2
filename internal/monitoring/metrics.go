package monitoring

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/sanarkk/book-management-system-api/internal/database"
)

// Service holds runtime context for monitoring and reporting.
type Service struct {
	startedAt time.Time
}

type Snapshot struct {
	TimestampUTC       string `json:"timestamp_utc"`
	UptimeSeconds      int64  `json:"uptime_seconds"`
	HTTPActiveRequests int64  `json:"http_active_requests"`
	HTTPTotalRequests  uint64 `json:"http_total_requests"`
	DBOpenConnections  int    `json:"db_open_connections"`
	DBInUseConnections int    `json:"db_in_use_connections"`
	DBWaitCount        int64  `json:"db_wait_count"`
	Goroutines         int    `json:"goroutines"`
	GoMemoryAllocBytes uint64 `json:"go_memory_alloc_bytes"`
	GoHeapInUseBytes   uint64 `json:"go_heap_in_use_bytes"`
	GoGCCount          uint32 `json:"go_gc_count"`
	UsersTotal         int64  `json:"users_total"`
	BooksTotal         int64  `json:"books_total"`
}

func NewService(startedAt time.Time) *Service {
	return &Service{startedAt: startedAt}
}

func (s *Service) StatusText() string {
	dbState := "ok"
	if err := database.DB.Ping(); err != nil {
		dbState = "error: " + err.Error()
	}

	uptime := time.Since(s.startedAt).Round(time.Second)
	activeHTTP, totalHTTP := getHTTPStats()
	dbStats := database.DB.Stats()

	return strings.Join([]string{
		"Book Management API Status",
		fmt.Sprintf("uptime: %s", uptime),
		fmt.Sprintf("database: %s", dbState),
		fmt.Sprintf("http requests active/total: %d/%d", activeHTTP, totalHTTP),
		fmt.Sprintf("db connections open/in-use: %d/%d", dbStats.OpenConnections, dbStats.InUse),
		fmt.Sprintf("goroutines: %d", runtime.NumGoroutine()),
	}, "\n")
}

func (s *Service) CollectSnapshot() Snapshot {
	activeHTTP, totalHTTP := getHTTPStats()
	dbStats := database.DB.Stats()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	snapshot := Snapshot{
		TimestampUTC:       time.Now().UTC().Format(time.RFC3339),
		UptimeSeconds:      int64(time.Since(s.startedAt).Seconds()),
		HTTPActiveRequests: activeHTTP,
		HTTPTotalRequests:  totalHTTP,
		DBOpenConnections:  dbStats.OpenConnections,
		DBInUseConnections: dbStats.InUse,
		DBWaitCount:        dbStats.WaitCount,
		Goroutines:         runtime.NumGoroutine(),
		GoMemoryAllocBytes: memStats.Alloc,
		GoHeapInUseBytes:   memStats.HeapInuse,
		GoGCCount:          memStats.NumGC,
	}

	snapshot.UsersTotal = countRows("users")
	snapshot.BooksTotal = countRows("books")

	return snapshot
}

func countRows(table string) int64 {
	var total int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
	if err := database.DB.QueryRow(query).Scan(&total); err != nil {
		return -1
	}
	return total
}
