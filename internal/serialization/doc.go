// Package serialization saves and loads trained networks in the .born format.
//
// A .born file stores the network topology next to its parameters, so a
// model can be rebuilt without the code that trained it:
//
//	File Structure:
//	  [64 bytes: fixed header]
//	    0x00 Magic "BORN"
//	    0x04 Version (uint32 LE)
//	    0x08 Flags (uint32 LE)
//	    0x0C Reserved
//	    0x10 Header size (uint64 LE)
//	    0x18 Data size (uint64 LE)
//	    0x20 SHA-256 of the data section (32 bytes)
//	  [Header: JSON metadata, topology and tensor table]
//	  [Tensor data: little-endian float64, 64-byte aligned]
//
// Optional optimizer state (SGD velocity buffers) travels in the same file
// under the "optim." tensor prefix.
//
// Example usage:
//
//	// Save a trained network
//	model := &serialization.Model{Network: net.Snapshot()}
//	if err := serialization.Save("model.born", model); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Load it back
//	model, err := serialization.Load("model.born")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	net, err := model.Build()
package serialization
