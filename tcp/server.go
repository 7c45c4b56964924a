package tcp

import (
	"context"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"

	"dbconsole/interface/tcp"
)

type Config struct {
	Address string
}

// ListenAndServeWithSignal 监听地址并在收到退出信号时关闭
func ListenAndServeWithSignal(cfg *Config, handler tcp.Handler) error {
	listener, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return err
	}
	log.WithField("addr", listener.Addr().String()).Info("start listen")

	closeChan := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)
	go func() {
		sig := <-sigChan
		log.WithField("signal", sig.String()).Info("received signal")
		close(closeChan)
	}()
	ListenAndServe(listener, handler, closeChan)
	return nil
}

// ListenAndServe 接受连接直到 closeChan 被关闭或 listener 出错，返回前等待所有连接处理完毕
func ListenAndServe(listener net.Listener, handler tcp.Handler, closeChan <-chan struct{}) {
	stop := make(chan struct{})
	go func() {
		select {
		case <-closeChan:
			log.Info("shutting down")
		case <-stop:
		}
		_ = listener.Close()
		_ = handler.Close()
	}()

	defer func() {
		close(stop)
		_ = listener.Close()
		_ = handler.Close()
	}()

	ctx := context.Background()
	var waitDone sync.WaitGroup
	for {
		conn, err := listener.Accept()
		if err != nil {
			break
		}
		log.WithField("remote", conn.RemoteAddr().String()).Debug("accepted link")
		waitDone.Add(1)
		go func() {
			defer waitDone.Done()
			handler.Handle(ctx, conn)
		}()
	}
	_ = handler.Close()
	waitDone.Wait()
}

// Server 在后台运行的服务实例，用于本地开发与测试
type Server struct {
	listener  net.Listener
	closeChan chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

// Start 监听 cfg.Address 并在后台开始服务
func Start(cfg *Config, handler tcp.Handler) (*Server, error) {
	listener, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return nil, err
	}
	s := &Server{
		listener:  listener,
		closeChan: make(chan struct{}),
		done:      make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		ListenAndServe(listener, handler, s.closeChan)
	}()
	return s, nil
}

func (s *Server) Addr() *net.TCPAddr {
	return s.listener.Addr().(*net.TCPAddr)
}

// Close 停止服务并等待所有连接退出
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.closeChan) })
	<-s.done
}
