package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"

	grpcapi "clinical-transcript-service/internal/api/grpc"
)

func newHealthCmd() *cobra.Command {
	var (
		addr    string
		service string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Query the service's gRPC health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			resp, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: service})
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", service, resp.GetStatus())
			if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
				return fmt.Errorf("service %s is %s", service, resp.GetStatus())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:50051", "gRPC server address")
	cmd.Flags().StringVar(&service, "service", grpcapi.ServiceName, "Health service name")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	return cmd
}
