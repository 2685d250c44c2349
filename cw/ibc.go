package cw

import "encoding/json"

// IBCMsg is the IBC side of CosmosMsg.
type IBCMsg struct {
	SendPacket   *IBCSendPacket   `json:"send_packet,omitempty"`
	CloseChannel *IBCCloseChannel `json:"close_channel,omitempty"`
}

type IBCSendPacket struct {
	ChannelID string          `json:"channel_id"`
	Data      json.RawMessage `json:"data"`
	// TimeoutSeconds is relative to the current block time; the host
	// converts it to an absolute timeout timestamp.
	TimeoutSeconds uint64 `json:"timeout_seconds"`
}

type IBCCloseChannel struct {
	ChannelID string `json:"channel_id"`
}

// SendPacket builds an IBC packet message, marshalling data to JSON.
func SendPacket(channelID string, data any, timeoutSeconds uint64) CosmosMsg {
	raw, err := json.Marshal(data)
	if err != nil {
		panic(err)
	}
	return CosmosMsg{IBC: &IBCMsg{SendPacket: &IBCSendPacket{
		ChannelID:      channelID,
		Data:           raw,
		TimeoutSeconds: timeoutSeconds,
	}}}
}

// IBCEndpoint identifies one side of a channel.
type IBCEndpoint struct {
	PortID    string `json:"port_id"`
	ChannelID string `json:"channel_id"`
}

// IBCChannel is the channel metadata handed to handshake entry points.
type IBCChannel struct {
	Endpoint             IBCEndpoint `json:"endpoint"`
	CounterpartyEndpoint IBCEndpoint `json:"counterparty_endpoint"`
	Order                string      `json:"order"`
	Version              string      `json:"version"`
	ConnectionID         string      `json:"connection_id"`
}

const (
	ChannelOrderUnordered = "ORDER_UNORDERED"
	ChannelOrderOrdered   = "ORDER_ORDERED"
)

type IBCChannelOpenMsg struct {
	Channel             IBCChannel `json:"channel"`
	CounterpartyVersion string     `json:"counterparty_version,omitempty"`
}

type IBCChannelConnectMsg struct {
	Channel             IBCChannel `json:"channel"`
	CounterpartyVersion string     `json:"counterparty_version,omitempty"`
}

type IBCChannelCloseMsg struct {
	Channel IBCChannel `json:"channel"`
}

// IBCPacket is a packet as observed by receive/ack/timeout entry points.
type IBCPacket struct {
	Data     json.RawMessage `json:"data"`
	Src      IBCEndpoint     `json:"src"`
	Dest     IBCEndpoint     `json:"dest"`
	Sequence uint64          `json:"sequence"`
}

type IBCPacketReceiveMsg struct {
	Packet IBCPacket `json:"packet"`
}

type IBCPacketAckMsg struct {
	Acknowledgement Acknowledgement `json:"acknowledgement"`
	OriginalPacket  IBCPacket       `json:"original_packet"`
}

type IBCPacketTimeoutMsg struct {
	Packet IBCPacket `json:"packet"`
}

// IBCReceiveResponse is returned from a packet receive: the ack travels back
// to the sender, messages are dispatched locally.
type IBCReceiveResponse struct {
	Acknowledgement Acknowledgement `json:"acknowledgement"`
	Messages        []SubMsg        `json:"messages"`
	Attributes      []Attribute     `json:"attributes"`
}

// Acknowledgement is the generic {result|error} envelope wrapped around every
// custom reply payload.
type Acknowledgement struct {
	Result []byte `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func AckSuccess(result []byte) Acknowledgement {
	if result == nil {
		result = []byte(`{}`)
	}
	return Acknowledgement{Result: result}
}

func AckError(err error) Acknowledgement {
	return Acknowledgement{Error: err.Error()}
}

func (a Acknowledgement) IsError() bool {
	return a.Error != ""
}
