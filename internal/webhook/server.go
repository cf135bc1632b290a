package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server는 웹훅 HTTP 서버입니다
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer는 새로운 서버를 생성합니다
func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      2 * time.Minute,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}
}

// Start는 요청 수신을 시작하며 서버가 종료될 때까지 반환하지 않습니다
func (s *Server) Start() error {
	s.logger.Info("웹훅 서버 시작", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("웹훅 서버 실행 실패: %w", err)
	}
	return nil
}

// Shutdown은 진행 중인 요청이 끝날 때까지 기다린 뒤 서버를 종료합니다
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("웹훅 서버 종료 중")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("웹훅 서버 종료 실패: %w", err)
	}
	return nil
}

// requestLogging은 모든 요청의 메서드, 경로, 상태 코드, 소요 시간을 기록합니다
func requestLogging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r)

			logger.Info("http 요청",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr))
		})
	}
}

// statusRecorder는 응답 상태 코드를 기록합니다
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}
