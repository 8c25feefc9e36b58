// Package main provides the fqinspect CLI tool for inspecting filequeue
// queue directories without a running writer or consumer.
//
// Usage:
//
//	fqinspect --base=<dir> <command> [options]
//
// Commands:
//
//	info  <queue>                    Print queue-info and per-part summary
//	audit <queue> <part-id>          CRC-verify every record in a part, print its xxh3-128 digest
//	tail  <queue> <consumer>         Print a consumer's persisted cursor and lag
//
// Reference: aalhour/rockyardkv cmd/ldb for the general shape of a
// read-only inspection CLI built around a --db/--base flag and a small set
// of subcommands dispatched by name.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/aalhour/filequeue"
	"github.com/aalhour/filequeue/internal/checksum"
	"github.com/aalhour/filequeue/internal/errs"
	"github.com/aalhour/filequeue/internal/fsx"
	"github.com/aalhour/filequeue/internal/part"
	"github.com/aalhour/filequeue/internal/record"
)

var (
	baseDir = flag.String("base", "", "Path to the queue directory (required)")
	help    = flag.Bool("help", false, "Print help")
)

func main() {
	flag.Parse()

	if *help || len(flag.Args()) == 0 {
		printUsage()
		return
	}

	if *baseDir == "" {
		fmt.Fprintln(os.Stderr, "Error: --base flag is required")
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(args)
	case "audit":
		err = cmdAudit(args)
	case "tail":
		err = cmdTail(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("fqinspect - filequeue directory inspection tool")
	fmt.Println()
	fmt.Println("Usage: fqinspect --base=<dir> <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  info  <queue>             Print queue-info and per-part summary")
	fmt.Println("  audit <queue> <part-id>   CRC-verify every record in a part, print its xxh3-128 digest")
	fmt.Println("  tail  <queue> <consumer>  Print a consumer's persisted cursor and lag")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
}

func cmdInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: fqinspect --base=<dir> info <queue>")
	}
	queueName := args[0]

	qinfo, err := part.ReadInfo(fsx.QueueInfoPath(*baseDir, queueName))
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			fmt.Printf("queue %q has never been pushed to\n", queueName)
			return nil
		}
		return fmt.Errorf("read queue-info: %w", err)
	}

	fmt.Printf("queue:        %s\n", qinfo.Name)
	fmt.Printf("current part: %d\n", qinfo.ID)
	fmt.Printf("count_pushed: %d\n", qinfo.CountPushed)
	fmt.Printf("right_edge:   %d\n", qinfo.RightEdge)
	fmt.Println()

	ids, err := fsx.ListPartIDs(*baseDir, queueName)
	if err != nil {
		return fmt.Errorf("list parts: %w", err)
	}

	fmt.Println("parts:")
	for _, id := range ids {
		info, err := part.ReadInfo(fsx.PartInfoPath(*baseDir, queueName, id))
		if err != nil {
			fmt.Printf("  %d: <unreadable: %v>\n", id, err)
			continue
		}
		fmt.Printf("  %d: count_pushed=%d right_edge=%d\n", info.ID, info.CountPushed, info.RightEdge)
	}
	return nil
}

func cmdAudit(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: fqinspect --base=<dir> audit <queue> <part-id>")
	}
	queueName := args[0]
	partID, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid part id %q: %w", args[1], err)
	}

	info, err := part.ReadInfo(fsx.PartInfoPath(*baseDir, queueName, partID))
	if err != nil {
		return fmt.Errorf("read part info: %w", err)
	}

	df, err := part.OpenForRead(*baseDir, queueName, partID)
	if err != nil {
		return fmt.Errorf("open part data file: %w", err)
	}
	defer df.Close()

	var (
		pos      uint64
		verified uint32
		bad      []uint64
	)
	for verified < info.CountPushed && pos < info.RightEdge {
		var headerBuf [record.HeaderSize]byte
		if _, err := df.ReadAt(headerBuf[:], int64(pos)); err != nil {
			return fmt.Errorf("read header at byte %d: %w", pos, err)
		}
		if !record.IsValidMagic(headerBuf[:]) {
			bad = append(bad, pos)
			break
		}
		hdr, err := record.DecodeHeader(headerBuf[:])
		if err != nil {
			return fmt.Errorf("decode header at byte %d: %w", pos, err)
		}

		payload := make([]byte, hdr.MsgLength)
		if _, err := df.ReadAt(payload, int64(pos)+record.HeaderSize); err != nil {
			return fmt.Errorf("read payload at byte %d: %w", pos, err)
		}
		if !record.Verify(headerBuf[:], payload) {
			bad = append(bad, pos)
		}

		pos += record.HeaderSize + uint64(len(payload))
		verified++
	}

	fmt.Printf("part %d: checked %d/%d records, %d bad\n", partID, verified, info.CountPushed, len(bad))
	for _, offset := range bad {
		fmt.Printf("  corrupt record at byte offset %d\n", offset)
	}

	digestFile, err := os.Open(fsx.DataFilePath(*baseDir, queueName, partID))
	if err != nil {
		return fmt.Errorf("open part data file for digest: %w", err)
	}
	defer digestFile.Close()

	digest, err := checksum.PartDigest(digestFile)
	if err != nil {
		return fmt.Errorf("compute part digest: %w", err)
	}
	fmt.Printf("xxh3-128: %s\n", digest)

	return nil
}

func cmdTail(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: fqinspect --base=<dir> tail <queue> <consumer>")
	}
	queueName := args[0]
	consumerName := args[1]

	snap, found, err := filequeue.ReadConsumerCursor(*baseDir, queueName, consumerName)
	if err != nil {
		return fmt.Errorf("read cursor: %w", err)
	}
	if !found {
		fmt.Printf("consumer %q has never committed a cursor on queue %q\n", consumerName, queueName)
		return nil
	}

	fmt.Printf("consumer:     %s\n", consumerName)
	fmt.Printf("queue:        %s\n", queueName)
	fmt.Printf("part_id:      %d\n", snap.PartID)
	fmt.Printf("pos_record:   %d\n", snap.PosRecord)
	fmt.Printf("count_popped: %d\n", snap.CountPopped)

	qinfo, err := part.ReadInfo(fsx.QueueInfoPath(*baseDir, queueName))
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return nil
		}
		return fmt.Errorf("read queue-info: %w", err)
	}
	if qinfo.ID == snap.PartID {
		lag := int64(qinfo.CountPushed) - int64(snap.CountPopped)
		if lag < 0 {
			lag = 0
		}
		fmt.Printf("lag:          %d records behind current part\n", lag)
	} else {
		fmt.Printf("lag:          consumer is on part %d, writer is on part %d\n", snap.PartID, qinfo.ID)
	}
	return nil
}
