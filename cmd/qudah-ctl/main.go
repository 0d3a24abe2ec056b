// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

// Qudah-ctl drives the daemon's control socket.
//
// Usage:
//
//	qudah-ctl [--socket PATH] status
//	qudah-ctl [--socket PATH] save
//	qudah-ctl [--socket PATH] reset [VALUE]
//	qudah-ctl [--socket PATH] shutdown
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/qudah-works/qudah/control"
	"github.com/qudah-works/qudah/lib/codec"
	"github.com/qudah-works/qudah/lib/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		socketPath string
		timeout    time.Duration
	)
	pflag.StringVar(&socketPath, "socket", config.DefaultControlSocket, "path to the daemon's control socket")
	pflag.DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
	pflag.Parse()

	args := pflag.Args()
	if len(args) == 0 {
		pflag.Usage()
		return fmt.Errorf("a command is required: status, save, reset, shutdown")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	switch command := args[0]; command {
	case "status":
		return status(ctx, socketPath)
	case "save":
		_, err := control.DoAction(ctx, socketPath, control.ActionSave)
		if err == nil {
			fmt.Println("saved")
		}
		return err
	case "reset":
		value := int64(0)
		if len(args) > 1 {
			parsed, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid reset value %q: %w", args[1], err)
			}
			value = parsed
		}
		_, err := control.Do(ctx, socketPath, control.ResetRequest{
			Action: control.ActionReset,
			Value:  value,
		})
		if err == nil {
			fmt.Printf("reset to %d\n", value)
		}
		return err
	case "shutdown":
		_, err := control.DoAction(ctx, socketPath, control.ActionShutdown)
		if err == nil {
			fmt.Println("shutdown requested")
		}
		return err
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func status(ctx context.Context, socketPath string) error {
	data, err := control.DoAction(ctx, socketPath, control.ActionStatus)
	if err != nil {
		return err
	}
	var response control.StatusResponse
	if err := codec.Unmarshal(data, &response); err != nil {
		return fmt.Errorf("decoding status: %w", err)
	}

	if response.PreviousValue != nil {
		fmt.Printf("previous value:     %d\n", *response.PreviousValue)
	} else {
		fmt.Println("previous value:     (unset)")
	}
	if response.PreviousUser != "" {
		fmt.Printf("previous user:      %s\n", response.PreviousUser)
	}
	if response.PreviousTimestamp != 0 {
		fmt.Printf("previous timestamp: %s\n",
			time.UnixMilli(response.PreviousTimestamp).Format(time.RFC3339))
	}
	fmt.Printf("categories:         %s\n", strings.Join(response.Categories, ", "))
	fmt.Printf("store path:         %s\n", response.StorePath)
	return nil
}
