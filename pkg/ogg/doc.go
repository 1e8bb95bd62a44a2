// ABOUTME: Ogg container demultiplexing package
// ABOUTME: Provides page synchronization, packet assembly and a page writer
// Package ogg implements the byte-level half of an Ogg playback pipeline.
//
// Sync turns an arbitrary byte stream into checksum-valid pages and
// resynchronizes after corrupt input. Assembler rebuilds the packets of one
// logical stream from its pages, dropping any packet that spans a lost page.
// Demuxer ties both to an io.Reader and absorbs the recoverable errors,
// counting them in DemuxStats.
//
// Example:
//
//	d := ogg.NewDemuxer(f)
//	for {
//	    pkt, err := d.NextPacket(ctx)
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    handle(pkt.Data)
//	}
package ogg
