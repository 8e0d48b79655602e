// SPDX-License-Identifier: MIT
package udp

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"melbar/internal/analysis"
	applog "melbar/internal/log"
)

// packetSender is the part of UDPSender the publisher needs.
type packetSender interface {
	Send(data []byte) error
}

// UDPPublisher periodically fetches the published band amplitudes, packs them
// into the binary packet format and sends them over UDP. It runs in a
// separate goroutine managed by Start and Stop, independent of the frame
// rate of whatever drives the pipeline.
type UDPPublisher struct {
	sender   packetSender               // The underlying UDP sender instance.
	source   analysis.AmplitudeProvider // Where amplitudes are read from.
	interval time.Duration              // The interval at which packets are sent.

	ticker   *time.Ticker   // Ticker that triggers packet sending.
	doneChan chan struct{}  // Channel used to signal the publisher goroutine to stop.
	stopOnce sync.Once      // Ensures the stop logic runs only once per Start/Stop cycle.
	wg       sync.WaitGroup // Waits for the publisher goroutine to finish during Stop.
	mu       sync.Mutex     // Protects access to ticker and doneChan during Start/Stop.

	sequenceNum uint32 // Monotonically increasing sequence number for packets.

	// Pre-allocated buffers so buildAndSendPacket does not allocate.
	amplitudes []float64
	packet     []byte
}

// NewUDPPublisher creates and initializes a new UDPPublisher.
// If the provided interval is invalid (<= 0), it defaults to 16ms (~60Hz).
func NewUDPPublisher(interval time.Duration, sender *UDPSender, source analysis.AmplitudeProvider) (*UDPPublisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}
	return newPublisher(interval, sender, source)
}

func newPublisher(interval time.Duration, sender packetSender, source analysis.AmplitudeProvider) (*UDPPublisher, error) {
	if source == nil {
		return nil, fmt.Errorf("UDPPublisher: amplitude source cannot be nil")
	}

	if interval <= 0 {
		interval = 16 * time.Millisecond // Default to ~60Hz if invalid
		applog.Warnf("UDPPublisher: Invalid interval provided, defaulting to %s", interval)
	}

	bands := min(source.Bands(), MaxAmplitudes)
	applog.Infof("UDPPublisher: Initializing (Interval: %s, Bands: %d, Packet: %d bytes)",
		interval, bands, HeaderSize+bands*4)

	return &UDPPublisher{
		sender:     sender,
		source:     source,
		interval:   interval,
		amplitudes: make([]float64, source.Bands()),
		packet:     make([]byte, 0, HeaderSize+bands*4),
	}, nil
}

// Start begins the periodic publishing process.
// It is safe to call Start multiple times; subsequent calls are no-ops if already started.
func (p *UDPPublisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDPPublisher: Start called but already running.")
		return
	}

	// Initialize resources for this run
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{} // Reset stopOnce for this run

	// Capture locals so the goroutine never reads p.ticker or p.doneChan.
	ticker := p.ticker
	doneChan := p.doneChan

	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("UDPPublisher: Publisher goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				applog.Debugf("UDPPublisher: Publisher goroutine received stop signal.")
				return
			}
		}
	}()
}

// Stop gracefully signals the publisher goroutine to terminate and waits for it to exit.
// It is safe to call Stop multiple times; subsequent calls are no-ops.
func (p *UDPPublisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		applog.Debugf("UDPPublisher: Stop called but not running.")
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})

	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("UDPPublisher: Stopped after %d packets.", p.sequenceNum)
	return nil
}

// buildAndSendPacket runs on each tick: it copies the latest amplitudes,
// encodes them and hands the packet to the sender.
func (p *UDPPublisher) buildAndSendPacket() {
	if err := p.source.AmplitudesInto(p.amplitudes); err != nil {
		applog.Errorf("UDPPublisher: Error getting amplitudes: %v", err)
		return // Skip sending this packet
	}

	p.sequenceNum++
	p.packet = AppendPacket(p.packet[:0], p.sequenceNum, time.Now().UnixNano(), p.amplitudes)

	// The sender logs its own failures.
	if err := p.sender.Send(p.packet); err == nil && applog.Enabled(applog.LevelDebug) {
		applog.Debugf("UDPPublisher: Sent packet %d (%d bytes)", p.sequenceNum, len(p.packet))
	}
}

// Close implements the io.Closer interface. It stops the publisher goroutine
// and then closes the sender when it supports closing.
func (p *UDPPublisher) Close() error {
	err := p.Stop()
	if c, ok := p.sender.(io.Closer); ok {
		err = errors.Join(err, c.Close())
	}
	return err
}

// Ensure UDPPublisher satisfies the io.Closer interface at compile time.
var _ interface{ Close() error } = (*UDPPublisher)(nil)
