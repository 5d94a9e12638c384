package router

import (
	"context"
	"encoding/json"
	"time"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/logger"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/messaging"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/socketio"
	"github.com/zishang520/socket.io/v2/socket"
)

const socketActionTimeout = 10 * time.Second

// SocketReply is the acknowledgement payload of a socket action.
type SocketReply struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Socket routes every messaging action name as a socket event. A client
// passes the payload as the first argument and receives the reply through
// the ack callback, or as an event of the same name when it sends none.
func Socket(server *socketio.Server, dispatcher *messaging.Dispatcher) {
	server.IO().On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		server.Connected(client)

		client.On("disconnect", func(...any) {
			server.Disconnected(client)
		})

		for _, action := range messaging.Actions {
			action := action
			client.On(string(action), func(args ...any) {
				server.Touch(client)
				reply := runSocketAction(client, dispatcher, action, args)

				if ack, ok := ackOf(args); ok {
					ack([]any{reply}, nil)
					return
				}
				client.Emit(string(action), reply)
			})
		}
	})
}

func runSocketAction(client *socket.Socket, dispatcher *messaging.Dispatcher, action messaging.Action, args []any) SocketReply {
	caller, ok := socketio.Identity(client)
	if !ok {
		return SocketReply{Error: messaging.PublicMessage(messaging.ErrUnauthorized)}
	}

	var payload []byte
	if len(args) > 0 {
		if _, isAck := args[0].(func([]any, error)); !isAck {
			var err error
			if payload, err = json.Marshal(args[0]); err != nil {
				return SocketReply{Error: messaging.PublicMessage(messaging.ErrInvalidArgument)}
			}
		}
	}

	req, err := messaging.DecodePayload(action, payload)
	if err != nil {
		return SocketReply{Error: messaging.PublicMessage(err)}
	}

	ctx, cancel := context.WithTimeout(context.Background(), socketActionTimeout)
	defer cancel()

	result, err := dispatcher.Dispatch(ctx, caller, req)
	if err != nil {
		l := logger.WithUserID(caller.ID)
		l.Debug().Str("action", string(action)).Str("outcome", messaging.Code(err)).Msg("socket action failed")
		return SocketReply{Error: messaging.PublicMessage(err)}
	}
	return SocketReply{Success: true, Data: result}
}

func ackOf(args []any) (func([]any, error), bool) {
	if len(args) == 0 {
		return nil, false
	}
	ack, ok := args[len(args)-1].(func([]any, error))
	return ack, ok
}
