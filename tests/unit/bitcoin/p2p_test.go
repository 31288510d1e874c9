package bitcoin_test

import (
	"testing"
	"github.com/supreme2580/btczee/pkg/bitcoin"
)

// TestP2P_MessageSerialization tests Bitcoin P2P message serialization (TDD RED phase)
func TestP2P_MessageSerialization(t *testing.T) {
	tests := []struct {
		name        string
		command     string
		payload     []byte
		expectedLen int
		description string
	}{
		{
			name:        "Version message",
			command:     "version",
			payload:     []byte{0x01, 0x02, 0x03, 0x04}, // Dummy payload
			expectedLen: 24 + 4,                          // Header + payload
			description: "Version message should serialize correctly",
		},
		{
			name:        "Ping message",
			command:     "ping",
			payload:     []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}, // 8-byte nonce
			expectedLen: 24 + 8,                                                  // Header + nonce
			description: "Ping message should serialize with 8-byte nonce",
		},
		{
			name:        "Empty message (verack)",
			command:     "verack",
			payload:     []byte{},
			expectedLen: 24, // Header only
			description: "Empty message should serialize header only",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Logf("TDD RED: %s - %s", tt.name, tt.description)

			// Build the message and serialize it to wire format
			msg := bitcoin.NewP2PMessage(tt.command, tt.payload)
			serialized := msg.Serialize()

			if len(serialized) != tt.expectedLen {
				t.Errorf("Expected serialized length %d, got %d", tt.expectedLen, len(serialized))
			}

			t.Logf("Message: %s, Payload length: %d, Serialized length: %d",
				tt.command, len(tt.payload), len(serialized))
		})
	}
}

// TestP2P_MessageDeserialization tests Bitcoin P2P message deserialization (TDD RED phase)
func TestP2P_MessageDeserialization(t *testing.T) {
	tests := []struct {
		name        string
		messageData []byte
		expectedCmd string
		expectedLen int
		description string
	}{
		{
			name: "Version message deserialization",
			// Bitcoin mainnet magic + "version" command + length + checksum + payload
			messageData: []byte{
				0xf9, 0xbe, 0xb4, 0xd9, // Magic bytes (mainnet)
				0x76, 0x65, 0x72, 0x73, 0x69, 0x6f, 0x6e, 0x00, 0x00, 0x00, 0x00, 0x00, // "version" command
				0x04, 0x00, 0x00, 0x00, // Payload length (4 bytes)
				0x8d, 0xe4, 0x72, 0xe2, // Correct checksum for [1,2,3,4]
				0x01, 0x02, 0x03, 0x04, // Payload
			},
			expectedCmd: "version",
			expectedLen: 4,
			description: "Version message should deserialize correctly",
		},
		{
			name: "Ping message deserialization",
			messageData: []byte{
				0xf9, 0xbe, 0xb4, 0xd9, // Magic bytes
				0x70, 0x69, 0x6e, 0x67, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // "ping" command
				0x08, 0x00, 0x00, 0x00, // Payload length (8 bytes)
				0x25, 0x02, 0xfa, 0x94, // Correct checksum for 8-byte nonce
				0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, // 8-byte nonce
			},
			expectedCmd: "ping",
			expectedLen: 8,
			description: "Ping message should deserialize with correct nonce",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Logf("TDD RED: %s - %s", tt.name, tt.description)

			// Parse the wire bytes back into a message
			msg, err := bitcoin.DeserializeP2PMessage(tt.messageData)
			if err != nil {
				t.Fatalf("Failed to deserialize message: %v", err)
			}

			if msg.Command() != tt.expectedCmd {
				t.Errorf("Expected command %s, got %s", tt.expectedCmd, msg.Command())
			}

			if len(msg.Payload()) != tt.expectedLen {
				t.Errorf("Expected payload length %d, got %d", tt.expectedLen, len(msg.Payload()))
			}

			t.Logf("Deserialized command: %s, payload length: %d", msg.Command(), len(msg.Payload()))
		})
	}
}

// TestP2P_MessageValidation tests P2P message validation (TDD RED phase)
func TestP2P_MessageValidation(t *testing.T) {
	tests := []struct {
		name        string
		messageData []byte
		shouldFail  bool
		description string
	}{
		{
			name: "Valid message with correct checksum",
			messageData: []byte{
				0xf9, 0xbe, 0xb4, 0xd9, // Magic bytes
				0x70, 0x69, 0x6e, 0x67, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // "ping"
				0x08, 0x00, 0x00, 0x00, // Length
				0x25, 0x02, 0xfa, 0x94, // Correct checksum for payload below
				0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, // Payload
			},
			shouldFail:  false,
			description: "Valid message should pass validation",
		},
		{
			name: "Invalid magic bytes",
			messageData: []byte{
				0x00, 0x00, 0x00, 0x00, // Wrong magic bytes
				0x70, 0x69, 0x6e, 0x67, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x08, 0x00, 0x00, 0x00,
				0x9c, 0x12, 0xcf, 0xdc,
				0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
			},
			shouldFail:  true,
			description: "Invalid magic bytes should fail validation",
		},
		{
			name: "Invalid checksum",
			messageData: []byte{
				0xf9, 0xbe, 0xb4, 0xd9,
				0x70, 0x69, 0x6e, 0x67, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x08, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, // Wrong checksum
				0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
			},
			shouldFail:  true,
			description: "Invalid checksum should fail validation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Logf("TDD RED: %s - %s", tt.name, tt.description)

			// A message is valid when it deserializes without error
			isValid := bitcoin.ValidateP2PMessage(tt.messageData)

			if tt.shouldFail && isValid {
				t.Errorf("Expected message to fail validation, but it passed")
			}

			if !tt.shouldFail && !isValid {
				t.Errorf("Expected message to pass validation, but it failed")
			}

			t.Logf("Message validation result: %v (expected fail: %v)", isValid, tt.shouldFail)
		})
	}
}

// TestP2P_PeerHandshake tests Bitcoin peer handshake process (TDD RED phase)
func TestP2P_PeerHandshake(t *testing.T) {
	tests := []struct {
		name        string
		peerAddr    string
		ourVersion  uint32
		expected    bool
		description string
	}{
		{
			name:        "Successful handshake",
			peerAddr:    "peer.example.com:8333", // Mock peer that will work
			ourVersion:  70015, // Protocol version
			expected:    true,
			description: "Valid peer should complete handshake",
		},
		{
			name:        "Version too old",
			peerAddr:    "127.0.0.1:8333",
			ourVersion:  60000, // Old version
			expected:    false,
			description: "Old protocol version should fail handshake",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Logf("TDD RED: %s - %s", tt.name, tt.description)

			// PerformHandshake simulates the handshake from the version and address
			peer := bitcoin.NewPeer(tt.peerAddr)
			success := peer.PerformHandshake(tt.ourVersion)

			if success != tt.expected {
				t.Errorf("Expected handshake result %v, got %v", tt.expected, success)
			}

			t.Logf("Handshake with %s (version %d): %v", tt.peerAddr, tt.ourVersion, success)
		})
	}
}

// TestP2P_PeerConnection tests peer connection management (TDD RED phase)
func TestP2P_PeerConnection(t *testing.T) {
	tests := []struct {
		name        string
		peerAddr    string
		shouldConnect bool
		description string
	}{
		{
			name:        "Connect to localhost",
			peerAddr:    "127.0.0.1:8333",
			shouldConnect: false, // Will fail since no actual node running
			description: "Connection attempt should be handled gracefully",
		},
		{
			name:        "Invalid address",
			peerAddr:    "invalid:address",
			shouldConnect: false,
			description: "Invalid address should fail connection",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Logf("TDD RED: %s - %s", tt.name, tt.description)

			// Dial the peer over TCP
			peer := bitcoin.NewPeer(tt.peerAddr)
			err := peer.Connect()

			if tt.shouldConnect && err != nil {
				t.Errorf("Expected successful connection, got error: %v", err)
			}

			if !tt.shouldConnect && err == nil {
				t.Errorf("Expected connection to fail, but it succeeded")
			}

			t.Logf("Connection to %s: %v", tt.peerAddr, err)
		})
	}
}