/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/salimtrading/staffportal/cmd"

func main() {
	cmd.Execute()
}
