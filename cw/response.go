package cw

import "encoding/json"

// Attribute is an indexed event attribute emitted with the transaction.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Response is what every mutating entry point returns: messages queued for
// dispatch after the current call commits, plus event attributes and optional
// binary data for the caller.
type Response struct {
	Messages   []SubMsg    `json:"messages"`
	Attributes []Attribute `json:"attributes"`
	Data       []byte      `json:"data,omitempty"`
}

func NewResponse() *Response {
	return &Response{}
}

func (r *Response) AddAttribute(key, value string) *Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
	return r
}

// AddMessage queues a fire-and-forget message (no reply).
func (r *Response) AddMessage(msg CosmosMsg) *Response {
	r.Messages = append(r.Messages, SubMsg{Msg: msg, ReplyOn: ReplyNever})
	return r
}

// AddSubMessage queues a message whose result is delivered back to the
// contract's Reply entry point under the given id.
func (r *Response) AddSubMessage(id uint64, msg CosmosMsg, replyOn ReplyOn) *Response {
	r.Messages = append(r.Messages, SubMsg{ID: id, Msg: msg, ReplyOn: replyOn})
	return r
}

// ReplyOn selects which outcomes of a submessage are routed back to Reply.
type ReplyOn string

const (
	ReplyNever   ReplyOn = "never"
	ReplyOnError ReplyOn = "error"
	ReplySuccess ReplyOn = "success"
	ReplyAlways  ReplyOn = "always"
)

// SubMsg is a queued outgoing message. The host executes it after the current
// message returns and, depending on ReplyOn, calls back into Reply with the
// correlation id.
type SubMsg struct {
	ID      uint64    `json:"id"`
	Msg     CosmosMsg `json:"msg"`
	ReplyOn ReplyOn   `json:"reply_on"`
}

// CosmosMsg is the tagged union of host messages a contract can emit. Exactly
// one field is set.
type CosmosMsg struct {
	Wasm *WasmMsg `json:"wasm,omitempty"`
	Bank *BankMsg `json:"bank,omitempty"`
	IBC  *IBCMsg  `json:"ibc,omitempty"`
}

type WasmMsg struct {
	Execute *WasmExecute `json:"execute,omitempty"`
}

type WasmExecute struct {
	ContractAddr string          `json:"contract_addr"`
	Msg          json.RawMessage `json:"msg"`
	Funds        []WireCoin      `json:"funds"`
}

type BankMsg struct {
	Send *BankSend `json:"send,omitempty"`
}

type BankSend struct {
	ToAddress string     `json:"to_address"`
	Amount    []WireCoin `json:"amount"`
}

// WireCoin is the JSON shape of a coin inside emitted messages.
type WireCoin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// ExecuteContract builds a wasm execute message, marshalling msg to JSON.
func ExecuteContract(contractAddr string, msg any, funds ...WireCoin) CosmosMsg {
	raw, err := json.Marshal(msg)
	if err != nil {
		panic(err)
	}
	if funds == nil {
		funds = []WireCoin{}
	}
	return CosmosMsg{Wasm: &WasmMsg{Execute: &WasmExecute{
		ContractAddr: contractAddr,
		Msg:          raw,
		Funds:        funds,
	}}}
}

// SendCoins builds a bank send message.
func SendCoins(toAddr, denom, amount string) CosmosMsg {
	return CosmosMsg{Bank: &BankMsg{Send: &BankSend{
		ToAddress: toAddr,
		Amount:    []WireCoin{{Denom: denom, Amount: amount}},
	}}}
}

// Reply is delivered to the contract after a submessage with a matching
// ReplyOn policy finishes.
type Reply struct {
	ID     uint64       `json:"id"`
	Result SubMsgResult `json:"result"`
}

// SubMsgResult mirrors the host's result envelope: exactly one of Ok/Err.
type SubMsgResult struct {
	Ok  *SubMsgResponse `json:"ok,omitempty"`
	Err string          `json:"error,omitempty"`
}

type SubMsgResponse struct {
	Data []byte `json:"data,omitempty"`
}
