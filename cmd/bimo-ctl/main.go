package main

import (
	"fmt"
	"os"
	"strings"

	"bimo/internal/ipc"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: bimo-ctl trigger | bimo-ctl say <text>")
		os.Exit(2)
	}

	cmd := os.Args[1]
	arg := strings.Join(os.Args[2:], " ")

	if err := ipc.SendCommand(cmd, arg); err != nil {
		fmt.Println("bimo-daemon not running:", err)
		return
	}
}
