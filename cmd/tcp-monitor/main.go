// Command tcp-monitor prints the server's watch-progress feed.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/goccy/go-json"

	"streamhub/pkg/models"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:9090", "progress feed address")
	raw := flag.Bool("raw", false, "print lines as received")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dial:", err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Println("Connected to progress feed:", *addr)

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		if *raw {
			fmt.Println(sc.Text())
			continue
		}
		var evt models.ProgressUpdate
		if err := json.Unmarshal(sc.Bytes(), &evt); err != nil {
			fmt.Println("bad line:", sc.Text())
			continue
		}
		fmt.Printf("%s user=%s episode=%s progress=%.1fs\n",
			time.Unix(evt.Timestamp, 0).Format(time.TimeOnly), evt.UserID, evt.EpisodeID, evt.Progress)
	}
	fmt.Println("Disconnected.")
}
