package storageserver

import (
	"context"
	"net"
	"net/rpc"

	"github.com/cubbit/dnfs/internal/logger"
	"github.com/cubbit/dnfs/internal/rpctypes"
)

// StorageHandler exposes Storage over net/rpc (§6): size, read, write.
type StorageHandler struct {
	srv *Server
}

// Size implements the Storage.Size RPC.
func (h *StorageHandler) Size(args *rpctypes.SizeArgs, reply *rpctypes.SizeReply) error {
	length, err := h.srv.Size(args.Path)
	if err != nil {
		return err
	}
	reply.Length = length
	return nil
}

// Read implements the Storage.Read RPC.
func (h *StorageHandler) Read(args *rpctypes.ReadArgs, reply *rpctypes.ReadReply) error {
	data, err := h.srv.Read(args.Path, args.Offset, args.Length)
	if err != nil {
		return err
	}
	reply.Data = data
	return nil
}

// Write implements the Storage.Write RPC.
func (h *StorageHandler) Write(args *rpctypes.WriteArgs, reply *rpctypes.WriteReply) error {
	return h.srv.Write(args.Path, args.Offset, args.Data)
}

// CommandHandler exposes Command over net/rpc (§6): create, delete, copy.
type CommandHandler struct {
	srv *Server
}

// Create implements the Command.Create RPC.
func (h *CommandHandler) Create(args *rpctypes.CreateArgs, reply *rpctypes.CreateReply) error {
	created, err := h.srv.Create(args.Path)
	if err != nil {
		return err
	}
	reply.Created = created
	return nil
}

// Delete implements the Command.Delete RPC.
func (h *CommandHandler) Delete(args *rpctypes.CommandDeleteArgs, reply *rpctypes.CommandDeleteReply) error {
	deleted, err := h.srv.Delete(args.Path)
	if err != nil {
		return err
	}
	reply.Deleted = deleted
	return nil
}

// Copy implements the Command.Copy RPC.
func (h *CommandHandler) Copy(args *rpctypes.CopyArgs, reply *rpctypes.CopyReply) error {
	copied, err := h.srv.Copy(args.Path, args.Peer)
	if err != nil {
		return err
	}
	reply.Copied = copied
	return nil
}

// Serve starts the Storage listener on storageAddr and the Command listener
// on commandAddr, both reachable at well-known TCP endpoints (§6). It
// blocks until ctx is cancelled.
func Serve(ctx context.Context, srv *Server, storageAddr, commandAddr string) error {
	storageServer := rpc.NewServer()
	if err := storageServer.RegisterName("Storage", &StorageHandler{srv: srv}); err != nil {
		return err
	}

	commandServer := rpc.NewServer()
	if err := commandServer.RegisterName("Command", &CommandHandler{srv: srv}); err != nil {
		return err
	}

	storageListener, err := net.Listen("tcp", storageAddr)
	if err != nil {
		return err
	}
	commandListener, err := net.Listen("tcp", commandAddr)
	if err != nil {
		storageListener.Close()
		return err
	}

	go acceptLoop(storageServer, storageListener, "Storage")
	go acceptLoop(commandServer, commandListener, "Command")

	<-ctx.Done()
	storageListener.Close()
	commandListener.Close()
	return nil
}

func acceptLoop(server *rpc.Server, listener net.Listener, name string) {
	logger.Info("%s listener started on %s", name, listener.Addr())
	for {
		conn, err := listener.Accept()
		if err != nil {
			logger.Debug("%s listener stopped: %v", name, err)
			return
		}
		go server.ServeConn(conn)
	}
}
