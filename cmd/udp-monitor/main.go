// Command udp-monitor subscribes to the server's UDP notices and prints them
// until interrupted, then unsubscribes.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"

	"streamhub/internal/udpnotify"
)

func main() {
	server := flag.String("addr", "127.0.0.1:7070", "notice server address")
	flag.Parse()

	serverAddr, err := net.ResolveUDPAddr("udp", *server)
	if err != nil {
		fmt.Fprintln(os.Stderr, "resolve:", err)
		os.Exit(1)
	}

	// one socket both subscribes and receives
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		fmt.Fprintln(os.Stderr, "listen:", err)
		os.Exit(1)
	}
	defer conn.Close()

	if _, err := conn.WriteToUDP([]byte("SUBSCRIBE"), serverAddr); err != nil {
		fmt.Fprintln(os.Stderr, "subscribe:", err)
		os.Exit(1)
	}
	fmt.Println("Subscribed to", *server, "from", conn.LocalAddr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		_, _ = conn.WriteToUDP([]byte("UNSUBSCRIBE"), serverAddr)
		_ = conn.Close()
	}()

	buf := make([]byte, 4096)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			fmt.Println("Unsubscribed.")
			return
		}
		var note udpnotify.Notification
		if err := json.Unmarshal(buf[:n], &note); err != nil {
			fmt.Println("bad datagram:", string(buf[:n]))
			continue
		}
		fmt.Printf("[%s] %s\n", time.Unix(note.Timestamp, 0).Format(time.DateTime), note.Message)
	}
}
