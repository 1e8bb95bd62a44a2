// ABOUTME: ogginspect subcommands: pages, packets, headers and verify
// ABOUTME: Each reads one stream through the demuxer and reports what it finds
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oggplay/oggplay/internal/version"
	"github.com/oggplay/oggplay/pkg/audio/decode"
	"github.com/oggplay/oggplay/pkg/audio/header"
	"github.com/oggplay/oggplay/pkg/ogg"
	"github.com/oggplay/oggplay/pkg/source"
)

type inspectOptions struct {
	verbose  bool
	readSize int
}

func newRootCmd() *cobra.Command {
	opts := &inspectOptions{}

	root := &cobra.Command{
		Use:   "ogginspect",
		Short: "Inspect Ogg Vorbis and Opus streams",
		Long: `ogginspect reads an Ogg stream and reports its pages, packets and
codec headers, or verifies that it demuxes and validates cleanly.

A location may be a file path, "-" for stdin, or an http(s) or ws(s) URL.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetFlags(0)
			if opts.verbose {
				log.SetOutput(cmd.ErrOrStderr())
			} else {
				log.SetOutput(io.Discard)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log recovered framing events")
	root.PersistentFlags().IntVar(&opts.readSize, "read-size", ogg.DefaultReadSize, "source read chunk size")

	root.AddCommand(
		newPagesCmd(opts),
		newPacketsCmd(opts),
		newHeadersCmd(opts),
		newVerifyCmd(opts),
	)
	return root
}

func openDemuxer(ctx context.Context, opts *inspectOptions, location string, extra ...ogg.DemuxerOption) (*ogg.Demuxer, io.Closer, error) {
	if location == "-" && !stdinIsPipe() {
		return nil, nil, errors.New("stdin is a terminal; pipe a stream in or pass a path")
	}
	rc, err := source.Open(ctx, location, source.Options{UserAgent: version.UserAgent()})
	if err != nil {
		return nil, nil, err
	}
	demuxOpts := append([]ogg.DemuxerOption{ogg.WithReadSize(opts.readSize)}, extra...)
	return ogg.NewDemuxer(rc, demuxOpts...), rc, nil
}

func newPagesCmd(opts *inspectOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pages <location>",
		Short: "List every valid page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			demux, closer, err := openDemuxer(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			defer closer.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-8s %-10s %-12s %-6s %-5s %s\n", "SEQ", "SERIAL", "GRANULE", "FLAGS", "SEGS", "BYTES")
			for {
				page, err := demux.NextPage(cmd.Context())
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-8d %08x   %-12d %-6s %-5d %d\n",
					page.Sequence, page.Serial, page.GranulePos, pageFlags(page),
					len(page.Segments), page.Size())
			}
			printStats(out, demux.Stats())
			return nil
		},
	}
}

func newPacketsCmd(opts *inspectOptions) *cobra.Command {
	var serial uint32
	cmd := &cobra.Command{
		Use:   "packets <location>",
		Short: "List the packets of one logical stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var extra []ogg.DemuxerOption
			if cmd.Flags().Changed("serial") {
				extra = append(extra, ogg.WithSerial(serial))
			}
			demux, closer, err := openDemuxer(cmd.Context(), opts, args[0], extra...)
			if err != nil {
				return err
			}
			defer closer.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-8s %-10s %-8s %-12s %s\n", "NUMBER", "SERIAL", "BYTES", "GRANULE", "MARKS")
			for {
				pkt, err := demux.NextPacket(cmd.Context())
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-8d %08x   %-8d %-12d %s\n",
					pkt.Number, pkt.Serial, len(pkt.Data), pkt.GranulePos, packetMarks(pkt))
			}
			printStats(out, demux.Stats())
			return nil
		},
	}
	cmd.Flags().Uint32Var(&serial, "serial", 0, "logical stream serial (default: first stream)")
	return cmd
}

func newHeadersCmd(opts *inspectOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "headers <location>",
		Short: "Validate and print the codec headers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			demux, closer, err := openDemuxer(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			defer closer.Close()

			desc, err := readHeaders(cmd.Context(), demux)
			if err != nil {
				return err
			}
			printDescriptor(cmd.OutOrStdout(), desc)
			return nil
		},
	}
}

func newVerifyCmd(opts *inspectOptions) *cobra.Command {
	var decodeAudio bool
	cmd := &cobra.Command{
		Use:   "verify <location>",
		Short: "Demux and validate the whole stream",
		Long: `verify reads the whole stream, validates its headers and reports every
recovered framing event. It exits non-zero on a fatal error. With --decode
each audio packet is also decoded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var events []string
			onEvent := func(err error) {
				events = append(events, err.Error())
			}
			demux, closer, err := openDemuxer(cmd.Context(), opts, args[0], ogg.WithEventHandler(onEvent))
			if err != nil {
				return err
			}
			defer closer.Close()

			desc, err := readHeaders(cmd.Context(), demux)
			if err != nil {
				return err
			}

			var dec decode.Decoder
			if decodeAudio {
				dec, err = decode.New(desc)
				if err != nil {
					return err
				}
				defer dec.Close()
			}

			var audioPackets, decodeErrors, samples int64
			for {
				pkt, err := demux.NextPacket(cmd.Context())
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return err
				}
				audioPackets++
				if dec == nil {
					continue
				}
				pcm, err := dec.Decode(pkt.Data)
				if err != nil {
					decodeErrors++
					events = append(events, fmt.Sprintf("packet %d: decode: %v", pkt.Number, err))
					continue
				}
				samples += int64(len(pcm))
			}

			fmt.Fprintf(out, "stream %08x: %s\n", desc.Serial, desc.Format())
			fmt.Fprintf(out, "audio packets: %d\n", audioPackets)
			if dec != nil {
				frames := samples / int64(desc.Channels)
				fmt.Fprintf(out, "decoded frames: %d (%.2fs), decode errors: %d\n",
					frames, float64(frames)/float64(desc.SampleRate), decodeErrors)
			}
			printStats(out, demux.Stats())
			for _, ev := range events {
				fmt.Fprintf(out, "  %s\n", ev)
			}
			if len(events) == 0 {
				fmt.Fprintln(out, "OK")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&decodeAudio, "decode", false, "decode every audio packet")
	return cmd
}

// readHeaders feeds packets to a validator until it is ready.
func readHeaders(ctx context.Context, demux *ogg.Demuxer) (*header.Descriptor, error) {
	v := header.NewValidator()
	for {
		pkt, err := demux.NextPacket(ctx)
		if errors.Is(err, io.EOF) {
			return nil, v.Finish()
		}
		if err != nil {
			return nil, err
		}
		step, err := v.Submit(pkt)
		if err != nil {
			return nil, err
		}
		if step.Kind == header.StepReady {
			return step.Descriptor, nil
		}
	}
}

func printDescriptor(out io.Writer, d *header.Descriptor) {
	fmt.Fprintf(out, "codec:       %s\n", d.Codec)
	fmt.Fprintf(out, "serial:      %08x\n", d.Serial)
	fmt.Fprintf(out, "channels:    %d\n", d.Channels)
	fmt.Fprintf(out, "sample rate: %d\n", d.SampleRate)
	fmt.Fprintf(out, "vendor:      %s\n", d.Vendor)
	switch d.Codec {
	case "vorbis":
		fmt.Fprintf(out, "blocksizes:  %d/%d\n", d.BlockSize0, d.BlockSize1)
		fmt.Fprintf(out, "bitrate:     nominal %d, min %d, max %d\n", d.BitrateNominal, d.BitrateMin, d.BitrateMax)
	case "opus":
		fmt.Fprintf(out, "pre-skip:    %d\n", d.PreSkip)
		fmt.Fprintf(out, "output gain: %d (Q7.8 dB)\n", d.OutputGain)
		fmt.Fprintf(out, "input rate:  %d\n", d.InputSampleRate)
		fmt.Fprintf(out, "mapping:     family %d\n", d.MappingFamily)
	}
	keys := d.CommentKeys()
	if len(keys) == 0 {
		return
	}
	fmt.Fprintln(out, "comments:")
	for _, key := range keys {
		for _, v := range d.Comments(key) {
			fmt.Fprintf(out, "  %s=%s\n", key, v)
		}
	}
}

func printStats(out io.Writer, s ogg.DemuxStats) {
	fmt.Fprintf(out, "pages %d, packets %d, resyncs %d (%d bytes skipped), corrupt %d, gaps %d, stale %d, foreign %d, lost %d\n",
		s.Pages, s.Packets, s.Resyncs, s.SkippedBytes, s.CorruptPages, s.Gaps, s.StalePages, s.ForeignPages, s.LostPackets)
}

func pageFlags(p *ogg.Page) string {
	var b strings.Builder
	if p.ContinuesPacket() {
		b.WriteByte('c')
	}
	if p.IsFirst() {
		b.WriteByte('b')
	}
	if p.IsLast() {
		b.WriteByte('e')
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}

func packetMarks(p ogg.Packet) string {
	var marks []string
	if p.BOS {
		marks = append(marks, "bos")
	}
	if p.EOS {
		marks = append(marks, "eos")
	}
	if len(marks) == 0 {
		return "-"
	}
	return strings.Join(marks, ",")
}

// stdinIsPipe reports whether stdin looks like a stream rather than a
// terminal.
func stdinIsPipe() bool {
	fi, err := os.Stdin.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice == 0
}
