package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"ra2ob/hexdump"
	"ra2ob/layout"
	"ra2ob/memory"
	"ra2ob/process"
	"ra2ob/process_blob"
	"ra2ob/resolver"
)

func main() {
	fromFlag := flag.String("from", "", "Recorded dump file")
	addrFlag := flag.String("addr", "", "Address to read from (hex)")
	sizeFlag := flag.Int("size", 256, "Number of bytes to hexdump")
	slotsFlag := flag.Bool("slots", false, "Resolve and print the player slot bases")
	pathFlag := flag.String("path", "", "Comma separated hex offsets to follow from -addr before dumping")
	flag.Parse()

	if *fromFlag == "" {
		fmt.Println("Error: -from is required")
		flag.Usage()
		os.Exit(1)
	}

	// Load the dump
	dump := process_blob.NewProcessDump()
	if err := dump.Load(*fromFlag); err != nil {
		fmt.Printf("Error loading dump from %s: %v\n", *fromFlag, err)
		os.Exit(1)
	}

	regions := dump.Regions()
	fmt.Printf("Loaded dump from %s\n", *fromFlag)
	fmt.Printf("Process Name: %s\n", dump.Name)
	fmt.Printf("PID: %d\n", dump.PID)
	fmt.Printf("Memory Regions: %d\n", len(regions))

	keys := make([]string, 0, len(dump.Attributes))
	for k := range dump.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s = %s\n", k, dump.Attributes[k])
	}

	if *slotsFlag {
		printSlots(dump)
	}

	// If no address is specified, just print the region list and exit
	if *addrFlag == "" {
		if *slotsFlag {
			return
		}
		fmt.Println("\nMemory Map:")
		for _, region := range regions {
			fmt.Printf("  %s\n", region)
		}
		return
	}

	addrStr := strings.TrimPrefix(strings.TrimPrefix(*addrFlag, "0x"), "0X")
	addrVal, err := strconv.ParseUint(addrStr, 16, 32)
	if err != nil {
		fmt.Printf("Error parsing address: %v\n", err)
		os.Exit(1)
	}
	addr := process.ProcessMemoryAddress(addrVal)

	if *pathFlag != "" {
		offsets, err := parseOffsets(*pathFlag)
		if err != nil {
			fmt.Printf("Error parsing path: %v\n", err)
			os.Exit(1)
		}
		target, ok := memory.New(dump).Path(addr, offsets...)
		if !ok {
			fmt.Printf("Error following path %s from %s\n", *pathFlag, addr.ToString())
			os.Exit(1)
		}
		fmt.Printf("\nPath %s from %s -> %s\n", *pathFlag, addr.ToString(), target.ToString())
		addr = target
	}

	size := process.ProcessMemorySize(*sizeFlag)
	data, err := dump.ReadMemory(addr, size)
	if err != nil {
		fmt.Printf("Error reading memory at %s: %v\n", addr.ToString(), err)
		os.Exit(1)
	}

	opts := hexdump.DefaultOptions()
	opts.StartOffset = uint64(addr)
	opts.Regions = regions
	fmt.Printf("\nHexdump at %s (%s):\n", addr.ToString(), size.ToString())
	fmt.Print(hexdump.Dump(data, opts))
}

func parseOffsets(s string) ([]uint32, error) {
	var offsets []uint32
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		part = strings.TrimPrefix(strings.TrimPrefix(part, "0x"), "0X")
		v, err := strconv.ParseUint(part, 16, 32)
		if err != nil {
			return nil, err
		}
		offsets = append(offsets, uint32(v))
	}
	return offsets, nil
}

func printSlots(dump *process_blob.ProcessDump) {
	r := resolver.New(layout.Default())
	mem := memory.New(dump)

	roots, err := r.ResolveRoots(mem)
	if err != nil {
		fmt.Printf("\nRoots: %v\n", err)
		return
	}
	fmt.Printf("\nRoots: fixed %s class base array %s player base array %s\n",
		roots.Fixed.ToString(), roots.ClassBaseArray.ToString(), roots.PlayerBaseArrayPtr.ToString())

	for i := 0; i < layout.MaxPlayer; i++ {
		bases, err := r.ResolveSlot(mem, roots, i)
		if err != nil {
			fmt.Printf("  slot %d: %v\n", i, err)
			continue
		}
		fmt.Printf("  slot %d: player %s house %s building %s/%d tank %s/%d infantry %s/%d aircraft %s/%d\n",
			i, bases.Player.ToString(), bases.HouseType.ToString(),
			bases.Building.Base.ToString(), bases.Building.ValidCount,
			bases.Tank.Base.ToString(), bases.Tank.ValidCount,
			bases.Infantry.Base.ToString(), bases.Infantry.ValidCount,
			bases.Aircraft.Base.ToString(), bases.Aircraft.ValidCount)
	}
}
