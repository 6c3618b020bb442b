package naming

import (
	"context"
	"net"
	"net/rpc"

	"github.com/cubbit/dnfs/internal/logger"
	"github.com/cubbit/dnfs/internal/rpctypes"
)

// ServiceHandler exposes Service over net/rpc (§6): lock, unlock,
// isDirectory, list, createFile, createDirectory, delete, getStorage.
type ServiceHandler struct {
	svc *Service
}

// Lock implements the Service.Lock RPC.
func (h *ServiceHandler) Lock(args *rpctypes.LockArgs, reply *rpctypes.LockReply) error {
	return h.svc.Lock(args.Path, args.Exclusive)
}

// Unlock implements the Service.Unlock RPC.
func (h *ServiceHandler) Unlock(args *rpctypes.UnlockArgs, reply *rpctypes.UnlockReply) error {
	return h.svc.Unlock(args.Path, args.Exclusive)
}

// IsDirectory implements the Service.IsDirectory RPC.
func (h *ServiceHandler) IsDirectory(args *rpctypes.IsDirectoryArgs, reply *rpctypes.IsDirectoryReply) error {
	isDir, err := h.svc.IsDirectory(args.Path)
	if err != nil {
		return err
	}
	reply.IsDirectory = isDir
	return nil
}

// List implements the Service.List RPC.
func (h *ServiceHandler) List(args *rpctypes.ListArgs, reply *rpctypes.ListReply) error {
	names, err := h.svc.List(args.Directory)
	if err != nil {
		return err
	}
	reply.Names = names
	return nil
}

// CreateFile implements the Service.CreateFile RPC.
func (h *ServiceHandler) CreateFile(args *rpctypes.CreateFileArgs, reply *rpctypes.CreateFileReply) error {
	created, err := h.svc.CreateFile(args.Path)
	if err != nil {
		return err
	}
	reply.Created = created
	return nil
}

// CreateDirectory implements the Service.CreateDirectory RPC.
func (h *ServiceHandler) CreateDirectory(args *rpctypes.CreateDirectoryArgs, reply *rpctypes.CreateDirectoryReply) error {
	created, err := h.svc.CreateDirectory(args.Path)
	if err != nil {
		return err
	}
	reply.Created = created
	return nil
}

// Delete implements the Service.Delete RPC.
func (h *ServiceHandler) Delete(args *rpctypes.DeleteArgs, reply *rpctypes.DeleteReply) error {
	deleted, err := h.svc.Delete(args.Path)
	if err != nil {
		return err
	}
	reply.Deleted = deleted
	return nil
}

// GetStorage implements the Service.GetStorage RPC.
func (h *ServiceHandler) GetStorage(args *rpctypes.GetStorageArgs, reply *rpctypes.GetStorageReply) error {
	storage, err := h.svc.GetStorage(args.Path)
	if err != nil {
		return err
	}
	reply.Storage = storage
	return nil
}

// RegistrationHandler exposes Registration over net/rpc (§6): register.
type RegistrationHandler struct {
	svc *Service
}

// Register implements the Registration.Register RPC.
func (h *RegistrationHandler) Register(args *rpctypes.RegisterArgs, reply *rpctypes.RegisterReply) error {
	pruned, err := h.svc.Register(args.Storage, args.Command, args.Files)
	if err != nil {
		return err
	}
	reply.Pruned = pruned
	return nil
}

// Serve starts the Service listener on serviceAddr and the Registration
// listener on registrationAddr, both as separate net/rpc servers reachable
// at well-known TCP endpoints (§6). It blocks until ctx is cancelled.
func Serve(ctx context.Context, svc *Service, serviceAddr, registrationAddr string) error {
	serviceServer := rpc.NewServer()
	if err := serviceServer.RegisterName("Service", &ServiceHandler{svc: svc}); err != nil {
		return err
	}

	registrationServer := rpc.NewServer()
	if err := registrationServer.RegisterName("Registration", &RegistrationHandler{svc: svc}); err != nil {
		return err
	}

	serviceListener, err := net.Listen("tcp", serviceAddr)
	if err != nil {
		return err
	}
	registrationListener, err := net.Listen("tcp", registrationAddr)
	if err != nil {
		serviceListener.Close()
		return err
	}

	go acceptLoop(serviceServer, serviceListener, "Service")
	go acceptLoop(registrationServer, registrationListener, "Registration")

	<-ctx.Done()
	serviceListener.Close()
	registrationListener.Close()
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
